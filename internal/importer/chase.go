package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports. Chase reports
// outflows as negative amounts; the sign becomes the item direction.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns statement items.
func (p *ChaseParser) Parse(r io.Reader) ([]model.BankStatementItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var items []model.BankStatementItem
	seen := make(map[string]int)
	for i, rec := range records[1:] {
		item, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		// same-day same-merchant rows get a numeric suffix
		if n := seen[item.ID]; n > 0 {
			seen[item.ID] = n + 1
			item.ID = fmt.Sprintf("%s_%d", item.ID, n+1)
		} else {
			seen[item.ID] = 1
		}
		items = append(items, item)
	}
	return items, nil
}

func parseChaseRow(rec []string) (model.BankStatementItem, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.BankStatementItem{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.BankStatementItem{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	dir := model.DirectionIn
	if amount.IsNegative() {
		dir = model.DirectionOut
	}

	desc := rec[chaseColDesc]
	return model.BankStatementItem{
		ID:          makeChaseRef(date, desc),
		Date:        date,
		Description: desc,
		Amount:      amount.Abs(),
		Direction:   dir,
	}, nil
}

// makeChaseRef creates a reference like chase_20250103_GITHUB.
func makeChaseRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("chase_%s_%s", date.Format("20060102"), prefix)
}
