package books

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/id"
	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/model"
	"github.com/microfin-dev/microfin/internal/posting"
	"github.com/microfin-dev/microfin/internal/store"
)

// ErrBooksNotEmpty is returned when demo data would mix with real entries.
var ErrBooksNotEmpty = errors.New("demo data can only be loaded into empty books")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// LoadDemo fills empty books with a small March 2024 sample: one posted
// sale banked in full, a bank statement with two lines still to explain,
// and a few customers, suppliers, invoices, purchase orders and expense
// claims. Everything is written in one transaction; on failure the books
// stay empty.
func (b *Book) LoadDemo(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) > 0 || len(b.bankItems) > 0 || len(b.customers) > 0 ||
		len(b.suppliers) > 0 || len(b.invoices) > 0 || len(b.expenses) > 0 || len(b.orders) > 0 {
		return ErrBooksNotEmpty
	}

	date := day(2024, time.March, 1)
	voucherID := id.NextVoucherID(date, nil)
	sale, err := b.engine().Commit(voucherID, date, []journal.Line{
		journal.Debit(accounts.CodeBank, amount("50000"), "Sales proceeds received"),
		journal.Credit(accounts.CodeMainRevenue, amount("50000"), "Main business revenue"),
	})
	if err != nil {
		return err
	}
	res, err := posting.NewProcessor(posting.WithClock(b.now)).Post(ctx, sale, entryIDs(sale))
	if err != nil {
		return err
	}
	entries := res.Entries

	items := []model.BankStatementItem{
		{ID: "B001", Date: day(2024, time.March, 1), Description: "Sales proceeds received", Amount: amount("50000"), Direction: model.DirectionIn},
		{ID: "B002", Date: day(2024, time.March, 5), Description: "Office supplies", Amount: amount("1500"), Direction: model.DirectionOut},
		{ID: "B003", Date: day(2024, time.March, 10), Description: "Interest income", Amount: amount("24.5"), Direction: model.DirectionIn},
	}
	customers := []model.Customer{
		{ID: "C001", Name: "Alibaba (China) Network Technology Co.", Contact: "Manager Ma", Phone: "0571-88888888", Email: "service@alibaba.com", CreditLimit: amount("500000"), Balance: amount("125000")},
		{ID: "C002", Name: "Tencent Technology (Shenzhen) Co.", Contact: "Mr. Ma", Phone: "0755-99999999", Email: "service@tencent.com", CreditLimit: amount("800000"), Balance: decimal.Zero},
	}
	suppliers := []model.Supplier{
		{ID: "S001", Name: "M&G Stationery Inc.", Contact: "Sales Zhang", Phone: "021-12345678", Email: "sales@chenguang.com", Category: "Office supplies", Active: true, Balance: amount("1200"), CreditLimit: amount("5000")},
		{ID: "S002", Name: "Intel (China) Ltd.", Contact: "Li Manager", Phone: "010-88888888", Email: "contact@intel.cn", Category: "Raw materials", Active: true, Balance: amount("45000"), CreditLimit: amount("100000")},
	}
	invoices := []model.Invoice{
		{ID: "INV202403001", CustomerID: "C001", Date: day(2024, time.March, 1), DueDate: day(2024, time.March, 31), Status: model.InvoicePaid, TaxRate: amount("0.13"), VoucherID: voucherID,
			Items: []model.InvoiceItem{{Description: "Software consulting", Quantity: amount("1"), Price: amount("50000")}}},
		{ID: "INV202403002", CustomerID: "C002", Date: day(2024, time.March, 15), DueDate: day(2024, time.April, 15), Status: model.InvoiceSent, TaxRate: amount("0.13"),
			Items: []model.InvoiceItem{{Description: "Server rental", Quantity: amount("10"), Price: amount("2000")}}},
	}
	orders := []model.PurchaseOrder{
		{ID: "PO202403001", SupplierID: "S001", Date: day(2024, time.March, 5), Amount: amount("3500"), Status: model.OrderCompleted},
		{ID: "PO202403002", SupplierID: "S002", Date: day(2024, time.March, 10), Amount: amount("88000"), Status: model.OrderPending},
	}
	expenses := []model.ExpenseClaim{
		{ID: "EXP001", EmployeeID: "EMP101", EmployeeName: "Wang", Date: day(2024, time.March, 10), Category: "Meals", Amount: amount("285"), Description: "Overtime dinner", Status: model.ExpensePending},
		{ID: "EXP002", EmployeeID: "EMP102", EmployeeName: "Zhang", Date: day(2024, time.March, 12), Category: "Travel", Amount: amount("150"), Description: "Taxi to client site", Status: model.ExpenseApproved},
	}

	err = b.save(ctx, map[string]any{
		store.KeyEntries:   entries,
		store.KeyBankItems: items,
		store.KeyCustomers: customers,
		store.KeySuppliers: suppliers,
		store.KeyInvoices:  invoices,
		store.KeyOrders:    orders,
		store.KeyExpenses:  expenses,
	}, func() {
		b.entries = entries
		b.bankItems = items
		b.customers = customers
		b.suppliers = suppliers
		b.invoices = invoices
		b.orders = orders
		b.expenses = expenses
	})
	if err != nil {
		return err
	}
	b.log.Info("demo data loaded", "voucher_id", voucherID)
	b.record(audit.ActionLoadDemo, "March 2024 sample", voucherID, "")
	return nil
}
