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

// GenericHeader is the column layout of the native bank statement CSV.
var GenericHeader = []string{"id", "date", "description", "amount", "direction"}

const genericDateFormat = "2006-01-02"

// GenericParser reads the native statement layout:
// id,date,description,amount,direction with a positive amount and an
// in/out direction.
type GenericParser struct{}

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a generic statement CSV.
func (p *GenericParser) Parse(r io.Reader) ([]model.BankStatementItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(GenericHeader)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	if !strings.EqualFold(records[0][0], GenericHeader[0]) {
		return nil, fmt.Errorf("unexpected header %v", records[0])
	}

	var items []model.BankStatementItem
	ids := make(map[string]bool)
	for i, rec := range records[1:] {
		item, err := parseGenericRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if ids[item.ID] {
			return nil, fmt.Errorf("row %d: duplicate item id %q", i+2, item.ID)
		}
		ids[item.ID] = true
		items = append(items, item)
	}
	return items, nil
}

func parseGenericRow(rec []string) (model.BankStatementItem, error) {
	id := strings.TrimSpace(rec[0])
	if id == "" {
		return model.BankStatementItem{}, fmt.Errorf("missing item id")
	}
	date, err := time.Parse(genericDateFormat, strings.TrimSpace(rec[1]))
	if err != nil {
		return model.BankStatementItem{}, fmt.Errorf("parsing date %q: %w", rec[1], err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
	if err != nil {
		return model.BankStatementItem{}, fmt.Errorf("parsing amount %q: %w", rec[3], err)
	}
	if !amount.IsPositive() {
		return model.BankStatementItem{}, fmt.Errorf("amount %s must be positive", amount)
	}
	dir, err := model.ParseDirection(strings.TrimSpace(rec[4]))
	if err != nil {
		return model.BankStatementItem{}, err
	}
	return model.BankStatementItem{
		ID:          id,
		Date:        date,
		Description: rec[2],
		Amount:      amount,
		Direction:   dir,
	}, nil
}

// WriteItems writes items in the generic layout.
func WriteItems(w io.Writer, items []model.BankStatementItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GenericHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, it := range items {
		rec := []string{it.ID, it.Date.Format(genericDateFormat), it.Description, it.Amount.StringFixed(2), string(it.Direction)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing item %s: %w", it.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
