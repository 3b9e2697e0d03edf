package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/model"
)

// Header is the CSV header for journal exports.
const Header = "entry_id,voucher_id,date,account_code,description,side,amount,currency,status,reconciled"

const (
	numFields     = 10
	dateFormat    = "2006-01-02"
	colEntryID    = 0
	colVoucherID  = 1
	colDate       = 2
	colAccount    = 3
	colDesc       = 4
	colSide       = 5
	colAmount     = 6
	colCurrency   = 7
	colStatus     = 8
	colReconciled = 9
)

// ReadEntries reads all entries from a journal CSV reader.
func ReadEntries(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.JournalEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to a journal CSV writer (including header).
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts a JournalEntry to a CSV row.
func MarshalEntry(e model.JournalEntry) []string {
	row := make([]string, numFields)
	row[colEntryID] = e.ID
	row[colVoucherID] = e.VoucherID
	row[colDate] = e.Date.Format(dateFormat)
	row[colAccount] = e.AccountCode
	row[colDesc] = e.Description
	row[colSide] = string(e.Side)
	row[colAmount] = e.Amount.StringFixed(2)
	row[colCurrency] = e.Currency
	row[colStatus] = string(e.Status)
	row[colReconciled] = strconv.FormatBool(e.Reconciled)
	return row
}

// UnmarshalEntry converts a CSV row to a JournalEntry.
func UnmarshalEntry(record []string) (model.JournalEntry, error) {
	if len(record) != numFields {
		return model.JournalEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	side, err := model.ParseSide(record[colSide])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing side: %w", err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	status, err := model.ParseStatus(record[colStatus])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing status: %w", err)
	}

	var reconciled bool
	if record[colReconciled] != "" {
		reconciled, err = strconv.ParseBool(record[colReconciled])
		if err != nil {
			return model.JournalEntry{}, fmt.Errorf("parsing reconciled %q: %w", record[colReconciled], err)
		}
	}

	return model.JournalEntry{
		ID:          record[colEntryID],
		VoucherID:   record[colVoucherID],
		Date:        date,
		AccountCode: record[colAccount],
		Description: record[colDesc],
		Side:        side,
		Amount:      amount,
		Currency:    record[colCurrency],
		Status:      status,
		Reconciled:  reconciled,
	}, nil
}
