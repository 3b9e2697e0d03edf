package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/id"
	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/model"
	"github.com/microfin-dev/microfin/internal/store"
)

// ErrInvoiceBooked is returned when an invoice's voucher was already
// committed, or the invoice is no longer a draft.
var ErrInvoiceBooked = errors.New("invoice is already booked")

// ErrOrderClosed is returned when a completed or cancelled order changes.
var ErrOrderClosed = errors.New("order is no longer pending")

// DuplicateIDError is returned when a record ID is already taken.
type DuplicateIDError struct {
	Kind string
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}

// appendUnique returns a copy of list with item appended, or an error if
// its ID is blank or taken.
func appendUnique[T any](kind string, list []T, item T, idOf func(T) string) ([]T, error) {
	itemID := strings.TrimSpace(idOf(item))
	if itemID == "" {
		return nil, fmt.Errorf("%s ID is required", kind)
	}
	for _, existing := range list {
		if idOf(existing) == itemID {
			return nil, &DuplicateIDError{Kind: kind, ID: itemID}
		}
	}
	return append(append([]T(nil), list...), item), nil
}

// Customers returns the customer register.
func (b *Book) Customers() []model.Customer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Customer(nil), b.customers...)
}

// AddCustomer registers a customer.
func (b *Book) AddCustomer(ctx context.Context, c model.Customer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("customer %s: name is required", c.ID)
	}
	next, err := appendUnique("customer", b.customers, c, func(c model.Customer) string { return c.ID })
	if err != nil {
		return err
	}
	if err := b.save(ctx, map[string]any{store.KeyCustomers: next}, func() { b.customers = next }); err != nil {
		return err
	}
	b.record(audit.ActionAddParty, "customer "+c.ID+" "+c.Name, "", "")
	return nil
}

// Suppliers returns the supplier register.
func (b *Book) Suppliers() []model.Supplier {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Supplier(nil), b.suppliers...)
}

// AddSupplier registers a supplier.
func (b *Book) AddSupplier(ctx context.Context, s model.Supplier) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("supplier %s: name is required", s.ID)
	}
	next, err := appendUnique("supplier", b.suppliers, s, func(s model.Supplier) string { return s.ID })
	if err != nil {
		return err
	}
	if err := b.save(ctx, map[string]any{store.KeySuppliers: next}, func() { b.suppliers = next }); err != nil {
		return err
	}
	b.record(audit.ActionAddParty, "supplier "+s.ID+" "+s.Name, "", "")
	return nil
}

// Invoices returns the sales invoices.
func (b *Book) Invoices() []model.Invoice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Invoice(nil), b.invoices...)
}

// AddInvoice records a sales invoice for a known customer. A blank status
// becomes draft.
func (b *Book) AddInvoice(ctx context.Context, inv model.Invoice) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasCustomer(inv.CustomerID) {
		return fmt.Errorf("invoice %s: unknown customer %q", inv.ID, inv.CustomerID)
	}
	if len(inv.Items) == 0 {
		return fmt.Errorf("invoice %s: at least one item is required", inv.ID)
	}
	if inv.Status == "" {
		inv.Status = model.InvoiceDraft
	}
	next, err := appendUnique("invoice", b.invoices, inv, func(i model.Invoice) string { return i.ID })
	if err != nil {
		return err
	}
	return b.save(ctx, map[string]any{store.KeyInvoices: next}, func() { b.invoices = next })
}

func (b *Book) hasCustomer(customerID string) bool {
	for _, c := range b.customers {
		if c.ID == customerID {
			return true
		}
	}
	return false
}

// BookInvoice commits the sales voucher of a draft invoice: receivable for
// the gross amount against main revenue and output VAT. The invoice
// becomes sent and remembers its voucher, so it is booked at most once.
func (b *Book) BookInvoice(ctx context.Context, invoiceID string) ([]model.JournalEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i, inv := range b.invoices {
		if inv.ID == invoiceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown invoice %q", invoiceID)
	}
	inv := b.invoices[idx]
	if inv.Booked() || inv.Status != model.InvoiceDraft {
		return nil, fmt.Errorf("invoice %s (%s): %w", inv.ID, inv.Status, ErrInvoiceBooked)
	}
	net := inv.Net().Round(2)
	tax := inv.Net().Mul(inv.TaxRate).Round(2)
	desc := "Invoice " + inv.ID

	lines := []journal.Line{
		journal.Debit(accounts.CodeReceivable, net.Add(tax), desc),
		journal.Credit(b.cfg.Accounts.VATRevenue, net, desc),
	}
	if !tax.IsZero() {
		lines = append(lines, journal.Credit(accounts.CodeTaxPayable, tax, desc+" output VAT"))
	}

	voucherID := id.NextVoucherID(inv.Date, voucherIDs(b.entries))
	invoices := append([]model.Invoice(nil), b.invoices...)
	invoices[idx].Status = model.InvoiceSent
	invoices[idx].VoucherID = voucherID
	created, err := b.commitVoucher(ctx, inv.Date, lines, map[string]any{store.KeyInvoices: invoices})
	if err != nil {
		return nil, err
	}
	b.invoices = invoices
	return created, nil
}

// Expenses returns the expense claims.
func (b *Book) Expenses() []model.ExpenseClaim {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.ExpenseClaim(nil), b.expenses...)
}

// AddExpense records an expense claim. A blank status becomes pending.
func (b *Book) AddExpense(ctx context.Context, e model.ExpenseClaim) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !e.Amount.IsPositive() {
		return fmt.Errorf("expense %s: amount must be positive", e.ID)
	}
	if e.Status == "" {
		e.Status = model.ExpensePending
	}
	next, err := appendUnique("expense", b.expenses, e, func(e model.ExpenseClaim) string { return e.ID })
	if err != nil {
		return err
	}
	return b.save(ctx, map[string]any{store.KeyExpenses: next}, func() { b.expenses = next })
}

// Orders returns the purchase orders.
func (b *Book) Orders() []model.PurchaseOrder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.PurchaseOrder(nil), b.orders...)
}

// AddOrder records a purchase order with a known supplier. A blank status
// becomes pending.
func (b *Book) AddOrder(ctx context.Context, o model.PurchaseOrder) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasSupplier(o.SupplierID) {
		return fmt.Errorf("order %s: unknown supplier %q", o.ID, o.SupplierID)
	}
	if !o.Amount.IsPositive() {
		return fmt.Errorf("order %s: amount must be positive", o.ID)
	}
	if o.Status == "" {
		o.Status = model.OrderPending
	}
	next, err := appendUnique("order", b.orders, o, func(o model.PurchaseOrder) string { return o.ID })
	if err != nil {
		return err
	}
	if err := b.save(ctx, map[string]any{store.KeyOrders: next}, func() { b.orders = next }); err != nil {
		return err
	}
	b.record(audit.ActionOrder, "order "+o.ID+" "+string(o.Status), "", "")
	return nil
}

// CompleteOrder marks a pending order as received.
func (b *Book) CompleteOrder(ctx context.Context, orderID string) error {
	return b.closeOrder(ctx, orderID, model.OrderCompleted)
}

// CancelOrder cancels a pending order.
func (b *Book) CancelOrder(ctx context.Context, orderID string) error {
	return b.closeOrder(ctx, orderID, model.OrderCancelled)
}

func (b *Book) closeOrder(ctx context.Context, orderID string, status model.OrderStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i, o := range b.orders {
		if o.ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unknown order %q", orderID)
	}
	if cur := b.orders[idx].Status; cur != model.OrderPending {
		return fmt.Errorf("order %s (%s): %w", orderID, cur, ErrOrderClosed)
	}
	next := append([]model.PurchaseOrder(nil), b.orders...)
	next[idx].Status = status
	if err := b.save(ctx, map[string]any{store.KeyOrders: next}, func() { b.orders = next }); err != nil {
		return err
	}
	b.record(audit.ActionOrder, "order "+orderID+" "+string(status), "", "")
	return nil
}

func (b *Book) hasSupplier(supplierID string) bool {
	for _, s := range b.suppliers {
		if s.ID == supplierID {
			return true
		}
	}
	return false
}
