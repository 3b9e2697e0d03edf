// Package store persists the books as JSON documents in a SQLite
// key/value table. A SaveAll call is one transaction: either every key is
// written or none is.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Keys under which the books are stored.
const (
	KeyCompany         = "company"
	KeyCOA             = "coa"
	KeyEntries         = "entries"
	KeyBankItems       = "bank_items"
	KeyCustomers       = "customers"
	KeySuppliers       = "suppliers"
	KeyInvoices        = "invoices"
	KeyExpenses        = "expenses"
	KeyOrders          = "orders"
	KeyRates           = "rates"
	KeyForeignBalances = "foreign_balances"
)

// Error is a persistence failure on one key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// document is one stored value.
type document struct {
	Name      string `gorm:"primaryKey"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (document) TableName() string { return "documents" }

// Store is a SQLite-backed document store.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &Error{Op: "open", Err: err}
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("failed to connect to database: %w", err)}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	// SQLite has a single writer, and every ":memory:" connection is a
	// separate database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("failed to migrate schema: %w", err)}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return &Error{Op: "close", Err: err}
	}
	if err := sqlDB.Close(); err != nil {
		return &Error{Op: "close", Err: err}
	}
	return nil
}

// Load decodes the value stored under key into dst. It reports false,
// leaving dst untouched, when the key has never been saved.
func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	var doc document
	err := s.db.WithContext(ctx).Where("name = ?", key).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &Error{Op: "load", Key: key, Err: err}
	}
	if err := json.Unmarshal(doc.Value, dst); err != nil {
		return false, &Error{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

// Save writes one value, replacing any previous one.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	return s.SaveAll(ctx, map[string]any{key: v})
}

// SaveAll writes every value in one transaction. Later writes to the same
// key win.
func (s *Store) SaveAll(ctx context.Context, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]document, 0, len(keys))
	for _, k := range keys {
		data, err := json.Marshal(values[k])
		if err != nil {
			return &Error{Op: "encode", Key: k, Err: err}
		}
		docs = append(docs, document{Name: k, Value: data})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range docs {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&docs[i]).Error
			if err != nil {
				return &Error{Op: "save", Key: docs[i].Name, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return err
		}
		return &Error{Op: "commit", Err: err}
	}
	return nil
}

// Keys lists the stored keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&document{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, &Error{Op: "keys", Err: err}
	}
	return names, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", key).Delete(&document{}).Error; err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	return nil
}
