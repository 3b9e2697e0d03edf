// Package posting moves validated journal entries from unposted to posted
// as one all-or-nothing batch.
package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/microfin-dev/microfin/internal/ledger"
	"github.com/microfin-dev/microfin/internal/model"
)

// Stage names a checkpoint of the posting pipeline.
type Stage string

const (
	StageArchive      Stage = "archive"
	StageTrialBalance Stage = "trial-balance"
	StageLedgerSync   Stage = "ledger-sync"
)

// Stages lists the pipeline checkpoints in execution order.
var Stages = []Stage{StageArchive, StageTrialBalance, StageLedgerSync}

var (
	// ErrConcurrentModification is returned when a targeted entry is no
	// longer unposted (or no longer present) at commit time.
	ErrConcurrentModification = errors.New("entries changed since the batch was prepared")
	// ErrUnbalanced is returned by the trial-balance stage.
	ErrUnbalanced = errors.New("posted debits and credits would not balance")
)

// PostingFailedError reports a batch that could not complete. No entry
// changed status.
type PostingFailedError struct {
	Stage Stage
	Err   error
}

func (e *PostingFailedError) Error() string {
	return fmt.Sprintf("posting failed at %s: %v", e.Stage, e.Err)
}

func (e *PostingFailedError) Unwrap() error {
	return e.Err
}

// Syncer makes a staged ledger durable during the ledger-sync stage.
type Syncer interface {
	Sync(ctx context.Context, entries []model.JournalEntry) error
}

// SyncFunc adapts a function to Syncer.
type SyncFunc func(ctx context.Context, entries []model.JournalEntry) error

// Sync calls f.
func (f SyncFunc) Sync(ctx context.Context, entries []model.JournalEntry) error {
	return f(ctx, entries)
}

// ProgressFunc receives stage progress. It is only called once the batch
// has committed, so it can never observe a half-posted ledger.
type ProgressFunc func(stage Stage, percent int)

// Result is the outcome of a committed batch.
type Result struct {
	BatchID  string
	Entries  []model.JournalEntry // full entry list with statuses flipped
	Posted   []string             // IDs that changed status
	PostedAt time.Time
}

// Processor runs posting batches.
type Processor struct {
	syncer   Syncer
	progress ProgressFunc
	now      func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithSyncer sets the ledger-sync checkpoint.
func WithSyncer(s Syncer) Option {
	return func(p *Processor) { p.syncer = s }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Processor) { p.progress = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a Processor.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostAll posts every unposted entry. Already posted entries are left as
// they are, so calling it twice posts nothing the second time.
func (p *Processor) PostAll(ctx context.Context, entries []model.JournalEntry) (Result, error) {
	var targets []string
	for _, e := range entries {
		if e.Status == model.StatusUnposted {
			targets = append(targets, e.ID)
		}
	}
	return p.Post(ctx, entries, targets)
}

// Post posts exactly the entries named by ids. Every targeted entry must
// still be unposted; otherwise nothing is posted and
// ErrConcurrentModification is returned.
func (p *Processor) Post(ctx context.Context, entries []model.JournalEntry, ids []string) (Result, error) {
	// archive: stage a private copy and pin the targets.
	staged := make([]model.JournalEntry, len(entries))
	copy(staged, entries)

	if len(ids) == 0 {
		return Result{Entries: staged}, nil
	}

	index := make(map[string]int, len(staged))
	for i, e := range staged {
		index[e.ID] = i
	}
	for _, id := range ids {
		i, ok := index[id]
		if !ok || staged[i].Status != model.StatusUnposted {
			return Result{}, &PostingFailedError{Stage: StageArchive, Err: fmt.Errorf("entry %s: %w", id, ErrConcurrentModification)}
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, &PostingFailedError{Stage: StageArchive, Err: err}
	}

	// trial-balance: flip and recheck the whole posted ledger.
	for _, id := range ids {
		staged[index[id]].Status = model.StatusPosted
	}
	if tb := ledger.Trial(staged); !tb.Balanced() {
		return Result{}, &PostingFailedError{
			Stage: StageTrialBalance,
			Err:   fmt.Errorf("%w: difference %s", ErrUnbalanced, tb.Difference().StringFixed(2)),
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, &PostingFailedError{Stage: StageTrialBalance, Err: err}
	}

	// ledger-sync: make it durable before anyone can see it.
	if p.syncer != nil {
		if err := p.syncer.Sync(ctx, staged); err != nil {
			return Result{}, &PostingFailedError{Stage: StageLedgerSync, Err: err}
		}
	}

	res := Result{
		BatchID:  uuid.NewString(),
		Entries:  staged,
		Posted:   append([]string(nil), ids...),
		PostedAt: p.now(),
	}

	if p.progress != nil {
		for i, st := range Stages {
			p.progress(st, (i+1)*100/len(Stages))
		}
	}
	return res, nil
}
