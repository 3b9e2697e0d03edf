// Package audit keeps an append-only CSV trail of changes to the books.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Action names a state transition of the books.
type Action string

const (
	ActionInitialize Action = "initialize"
	ActionAddAccount Action = "add_account"
	ActionCommit     Action = "commit_voucher"
	ActionPost       Action = "post_batch"
	ActionImportBank Action = "import_bank_statement"
	ActionReconcile  Action = "reconcile"
	ActionRefreshFX  Action = "refresh_rates"
	ActionRevalue    Action = "revalue"
	ActionAddParty   Action = "add_party"
	ActionOrder      Action = "update_order"
	ActionLoadDemo   Action = "load_demo"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	Actor     string
	Action    Action
	Details   string
	VoucherID string
	RunID     string // posting batch or reconciliation run
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,actor,action,details,voucher_id,run_id"

const (
	numFields    = 6
	logDir       = "logs"
	logFile      = "logs/audit-log.csv"
	colTimestamp = 0
	colActor     = 1
	colAction    = 2
	colDetails   = 3
	colVoucherID = 4
	colRunID     = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = string(e.Action)
	row[colDetails] = e.Details
	row[colVoucherID] = e.VoucherID
	row[colRunID] = e.RunID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		Actor:     record[colActor],
		Action:    Action(record[colAction]),
		Details:   record[colDetails],
		VoucherID: record[colVoucherID],
		RunID:     record[colRunID],
	}, nil
}

// Log appends to <root>/logs/audit-log.csv.
type Log struct {
	root  string
	actor string
	now   func() time.Time
}

// NewLog returns a log rooted at root that records entries as
// actor.
func NewLog(root, actor string) *Log {
	return &Log{root: root, actor: actor, now: time.Now}
}

// Record appends one entry stamped with the current time.
func (l *Log) Record(action Action, details, voucherID, runID string) error {
	return Append(l.root, []Entry{{
		Timestamp: l.now(),
		Actor:     l.actor,
		Action:    action,
		Details:   details,
		VoucherID: voucherID,
		RunID:     runID,
	}})
}

// Entries reads back the whole log.
func (l *Log) Entries() ([]Entry, error) {
	return Read(l.root)
}

// Append writes entries to <root>/logs/audit-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
