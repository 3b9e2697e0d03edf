package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a sales counterparty.
type Customer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Contact     string          `json:"contact"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Balance     decimal.Decimal `json:"balance"`
}

// Supplier is a purchasing counterparty.
type Supplier struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Contact     string          `json:"contact"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Category    string          `json:"category"`
	Active      bool            `json:"active"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// InvoiceStatus tracks a sales invoice through collection.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// InvoiceItem is one billed line.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Invoice is a sales invoice.
type Invoice struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Date       time.Time       `json:"date"`
	DueDate    time.Time       `json:"due_date"`
	Items      []InvoiceItem   `json:"items"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Status     InvoiceStatus   `json:"status"`
	VoucherID  string          `json:"voucher_id,omitempty"` // set once booked
}

// Booked reports whether the sales voucher of the invoice was committed.
func (inv Invoice) Booked() bool {
	return inv.VoucherID != ""
}

// Net returns the invoice total before tax.
func (inv Invoice) Net() decimal.Decimal {
	total := decimal.Zero
	for _, it := range inv.Items {
		total = total.Add(it.Quantity.Mul(it.Price))
	}
	return total
}

// Gross returns the invoice total including tax.
func (inv Invoice) Gross() decimal.Decimal {
	return inv.Net().Mul(decimal.NewFromInt(1).Add(inv.TaxRate))
}

// ExpenseStatus tracks an expense claim through approval.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
	ExpensePaid     ExpenseStatus = "paid"
)

// ExpenseClaim is an employee reimbursement request.
type ExpenseClaim struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Date         time.Time       `json:"date"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Status       ExpenseStatus   `json:"status"`
}

// OrderStatus tracks a purchase order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID         string          `json:"id"`
	SupplierID string          `json:"supplier_id"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Status     OrderStatus     `json:"status"`
}
