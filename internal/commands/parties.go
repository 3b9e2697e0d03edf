package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/model"
)

func newPartyCommands(root *rootOptions) []*cobra.Command {
	return []*cobra.Command{
		newCustomerCommand(root),
		newSupplierCommand(root),
		newInvoiceCommand(root),
		newOrderCommand(root),
		newExpenseCommand(root),
	}
}

type contactFlags struct {
	contact     string
	phone       string
	email       string
	creditLimit string
}

func (f *contactFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.contact, "contact", "", "contact person")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.creditLimit, "credit-limit", "0", "credit limit")
}

func (f *contactFlags) limit() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(f.creditLimit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid credit limit %q: %w", f.creditLimit, err)
	}
	return d, nil
}

func newCustomerCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "customer", Short: "Customers"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tCONTACT\tCREDIT LIMIT\tBALANCE\t")
				for _, c := range s.book.Customers() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", c.ID, c.Name, c.Contact, money(c.CreditLimit), money(c.Balance))
				}
				return tw.Flush()
			})
		},
	}

	var flags contactFlags
	add := &cobra.Command{
		Use:   "add ID NAME",
		Short: "Add a customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := flags.limit()
			if err != nil {
				return err
			}
			c := model.Customer{ID: args[0], Name: args[1], Contact: flags.contact, Phone: flags.phone, Email: flags.email, CreditLimit: limit, Balance: decimal.Zero}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if err := s.book.AddCustomer(ctx, c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added customer %s %s\n", c.ID, c.Name)
				return s.commit(cmd, "customer: add "+c.ID)
			})
		},
	}
	flags.register(add)

	cmd.AddCommand(list, add)
	return cmd
}

func newSupplierCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "supplier", Short: "Suppliers"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List suppliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tACTIVE\tBALANCE\t")
				for _, sp := range s.book.Suppliers() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t\n", sp.ID, sp.Name, sp.Category, sp.Active, money(sp.Balance))
				}
				return tw.Flush()
			})
		},
	}

	var flags contactFlags
	var category string
	add := &cobra.Command{
		Use:   "add ID NAME",
		Short: "Add a supplier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := flags.limit()
			if err != nil {
				return err
			}
			sp := model.Supplier{ID: args[0], Name: args[1], Contact: flags.contact, Phone: flags.phone, Email: flags.email,
				Category: category, Active: true, Balance: decimal.Zero, CreditLimit: limit}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if err := s.book.AddSupplier(ctx, sp); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added supplier %s %s\n", sp.ID, sp.Name)
				return s.commit(cmd, "supplier: add "+sp.ID)
			})
		},
	}
	flags.register(add)
	add.Flags().StringVar(&category, "category", "", "supply category")

	cmd.AddCommand(list, add)
	return cmd
}

func newInvoiceCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "invoice", Short: "Sales invoices"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tCUSTOMER\tDATE\tDUE\tNET\tGROSS\tSTATUS\tVOUCHER\t")
				for _, inv := range s.book.Invoices() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", inv.ID, inv.CustomerID,
						inv.Date.Format(dateLayout), inv.DueDate.Format(dateLayout),
						money(inv.Net()), money(inv.Gross()), inv.Status, inv.VoucherID)
				}
				return tw.Flush()
			})
		},
	}

	var (
		date    string
		due     string
		taxRate string
		items   []string
	)
	add := &cobra.Command{
		Use:   "add ID CUSTOMER",
		Short: "Draft an invoice",
		Long: `Draft a sales invoice for a known customer. Each --item is
DESCRIPTION:QUANTITY:PRICE, for example --item "Server rental:10:2000".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := model.Invoice{ID: args[0], CustomerID: args[1], Status: model.InvoiceDraft}
			var err error
			if inv.Date, err = parseDate(date); err != nil {
				return err
			}
			inv.DueDate = inv.Date.AddDate(0, 0, 30)
			if due != "" {
				if inv.DueDate, err = parseDate(due); err != nil {
					return err
				}
			}
			if inv.TaxRate, err = decimal.NewFromString(strings.TrimSpace(taxRate)); err != nil {
				return fmt.Errorf("invalid tax rate %q: %w", taxRate, err)
			}
			for _, arg := range items {
				item, err := parseItem(arg)
				if err != nil {
					return err
				}
				inv.Items = append(inv.Items, item)
			}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if err := s.book.AddInvoice(ctx, inv); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Drafted invoice %s, gross %s\n", inv.ID, money(inv.Gross()))
				return s.commit(cmd, "invoice: add "+inv.ID)
			})
		},
	}
	add.Flags().StringVar(&date, "date", "", "invoice date, YYYY-MM-DD")
	add.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD (default 30 days after --date)")
	add.Flags().StringVar(&taxRate, "tax-rate", "0.13", "output VAT rate")
	add.Flags().StringArrayVar(&items, "item", nil, "billed line DESCRIPTION:QUANTITY:PRICE (repeatable)")
	_ = add.MarkFlagRequired("date")

	book := &cobra.Command{
		Use:   "book ID",
		Short: "Commit the receivable voucher for a draft invoice and mark it sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				created, err := s.book.BookInvoice(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Committed voucher %s for invoice %s\n", created[0].VoucherID, args[0])
				return s.commit(cmd, "invoice: book "+args[0])
			})
		},
	}

	cmd.AddCommand(list, add, book)
	return cmd
}

// parseItem reads DESCRIPTION:QUANTITY:PRICE. The description may itself
// contain colons.
func parseItem(arg string) (model.InvoiceItem, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 3 {
		return model.InvoiceItem{}, fmt.Errorf("invalid item %q: want DESCRIPTION:QUANTITY:PRICE", arg)
	}
	n := len(parts)
	qty, err := decimal.NewFromString(strings.TrimSpace(parts[n-2]))
	if err != nil {
		return model.InvoiceItem{}, fmt.Errorf("invalid quantity in item %q: %w", arg, err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return model.InvoiceItem{}, fmt.Errorf("invalid price in item %q: %w", arg, err)
	}
	if !qty.IsPositive() || price.IsNegative() {
		return model.InvoiceItem{}, fmt.Errorf("invalid item %q: quantity must be positive and price not negative", arg)
	}
	return model.InvoiceItem{Description: strings.Join(parts[:n-2], ":"), Quantity: qty, Price: price}, nil
}

func newOrderCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "order", Short: "Purchase orders"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List purchase orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tSUPPLIER\tDATE\tAMOUNT\tSTATUS\t")
				for _, o := range s.book.Orders() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", o.ID, o.SupplierID,
						o.Date.Format(dateLayout), money(o.Amount), o.Status)
				}
				return tw.Flush()
			})
		},
	}

	var date string
	add := &cobra.Command{
		Use:   "add ID SUPPLIER AMOUNT",
		Short: "Place a purchase order",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(strings.TrimSpace(args[2]))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			o := model.PurchaseOrder{ID: args[0], SupplierID: args[1], Date: day, Amount: amount}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if err := s.book.AddOrder(ctx, o); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Placed order %s with %s\n", o.ID, o.SupplierID)
				return s.commit(cmd, "order: add "+o.ID)
			})
		},
	}
	add.Flags().StringVar(&date, "date", "", "order date, YYYY-MM-DD")
	_ = add.MarkFlagRequired("date")

	transition := func(use, short, verb string, apply func(ctx context.Context, s *session, id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, root, func(ctx context.Context, s *session) error {
					if err := apply(ctx, s, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Order %s %s\n", args[0], verb)
					return s.commit(cmd, "order: "+use+" "+args[0])
				})
			},
		}
	}
	complete := transition("complete", "Mark a pending order as received", "completed",
		func(ctx context.Context, s *session, id string) error { return s.book.CompleteOrder(ctx, id) })
	cancel := transition("cancel", "Cancel a pending order", "cancelled",
		func(ctx context.Context, s *session, id string) error { return s.book.CancelOrder(ctx, id) })

	cmd.AddCommand(list, add, complete, cancel)
	return cmd
}

func newExpenseCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "expense", Short: "Expense claims"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List expense claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tEMPLOYEE\tDATE\tCATEGORY\tAMOUNT\tSTATUS\t")
				for _, e := range s.book.Expenses() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", e.ID, e.EmployeeName,
						e.Date.Format(dateLayout), e.Category, money(e.Amount), e.Status)
				}
				return tw.Flush()
			})
		},
	}

	var (
		employeeID   string
		employeeName string
		date         string
		category     string
		description  string
	)
	add := &cobra.Command{
		Use:   "add ID AMOUNT",
		Short: "File an expense claim",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			claim := model.ExpenseClaim{ID: args[0], EmployeeID: employeeID, EmployeeName: employeeName,
				Date: day, Category: category, Amount: amount, Description: description}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if err := s.book.AddExpense(ctx, claim); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Filed expense claim %s\n", claim.ID)
				return s.commit(cmd, "expense: add "+claim.ID)
			})
		},
	}
	add.Flags().StringVar(&employeeID, "employee-id", "", "employee ID")
	add.Flags().StringVar(&employeeName, "employee", "", "employee name")
	add.Flags().StringVar(&date, "date", "", "claim date, YYYY-MM-DD")
	add.Flags().StringVar(&category, "category", "", "expense category")
	add.Flags().StringVar(&description, "description", "", "what the expense was for")
	_ = add.MarkFlagRequired("date")

	cmd.AddCommand(list, add)
	return cmd
}
