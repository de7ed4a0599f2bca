package app

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/moneta-finance/moneta/pkg/budget_alert"
	"github.com/moneta-finance/moneta/pkg/lifecycle"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// commands registers every shell command.
func (s *Shell) commands() []*cli.Command {
	deps := s.deps
	return []*cli.Command{
		// Session
		{Name: "register", Usage: "create an account", ArgsUsage: "NAME EMAIL PASSWORD", Before: requireAnonymous(deps), Action: s.register},
		{Name: "login", Usage: "log in", ArgsUsage: "EMAIL PASSWORD", Before: requireAnonymous(deps), Action: s.login},
		{Name: "mode", Usage: "switch the auth form between login and register", ArgsUsage: "login|register", Before: requireAnonymous(deps), Action: s.mode},
		{Name: "logout", Usage: "end the session", Action: s.logout},
		{Name: "status", Usage: "show the session state", Action: s.status},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "leave moneta", Action: func(*cli.Context) error {
			s.quit()
			return nil
		}},

		// Transactions
		{
			Name:   "tx",
			Usage:  "manage transactions",
			Before: requireSession(deps),
			Subcommands: []*cli.Command{
				{Name: "list", Usage: "list transactions", Action: s.listTransactions},
				{Name: "add", Usage: "record a transaction", Flags: transactionFlags(), Action: s.addTransaction},
				{Name: "update", Usage: "change a transaction", ArgsUsage: "ID", Flags: transactionFlags(), Action: s.updateTransaction},
				{Name: "delete", Usage: "delete a transaction", ArgsUsage: "ID", Action: s.deleteTransaction},
			},
		},

		// Categories
		{
			Name:   "category",
			Usage:  "manage categories",
			Before: requireSession(deps),
			Subcommands: []*cli.Command{
				{Name: "list", Usage: "list categories", Action: s.listCategories},
				{Name: "add", Usage: "create a category", ArgsUsage: "NAME", Action: s.addCategory},
			},
		},

		// Budgets
		{
			Name:   "budget",
			Usage:  "manage monthly budgets",
			Before: requireSession(deps),
			Subcommands: []*cli.Command{
				{Name: "list", Usage: "list budgets, all or of one month", ArgsUsage: "[YEAR MONTH]", Action: s.listBudgets},
				{Name: "add", Usage: "create a budget", Flags: budgetFlags(true), Action: s.addBudget},
				{Name: "update", Usage: "change a budget", ArgsUsage: "ID", Flags: budgetFlags(false), Action: s.updateBudget},
				{Name: "delete", Usage: "delete a budget", ArgsUsage: "ID", Action: s.deleteBudget},
				{Name: "status", Usage: "show budget usage for a month", ArgsUsage: "[YEAR MONTH]", Action: s.budgetStatus},
			},
		},

		// Analytics
		{
			Name:      "analytics",
			Usage:     "monthly summary, spending by category and budget alerts",
			ArgsUsage: "[YEAR MONTH]",
			Before:    requireSession(deps),
			Flags:     []cli.Flag{&cli.BoolFlag{Name: "csv", Usage: "print the report as CSV"}},
			Action:    s.analytics,
		},
		{
			Name:      "export",
			Usage:     "download all transactions as " + api.ExportFilename,
			ArgsUsage: "[DIR]",
			Before:    requireSession(deps),
			Action:    s.export,
		},
	}
}

func transactionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "amount", Usage: "positive amount, e.g. 12.50"},
		&cli.StringFlag{Name: "type", Value: string(api.Expense), Usage: "INCOME or EXPENSE"},
		&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD, defaults to today"},
		&cli.StringFlag{Name: "category", Usage: "category id"},
		&cli.StringFlag{Name: "note"},
	}
}

func budgetFlags(limitRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "limit", Usage: "monthly limit", Required: limitRequired},
		&cli.StringFlag{Name: "category", Usage: "category id, omit for a general budget"},
		&cli.IntFlag{Name: "year"},
		&cli.IntFlag{Name: "month"},
		&cli.BoolFlag{Name: "rollover", Usage: "carry unspent money to the next month"},
		&cli.BoolFlag{Name: "prevent-exceed", Usage: "refuse expenses over the limit"},
	}
}

func requireArgs(c *cli.Context, names ...string) error {
	if c.NArg() != len(names) {
		return fmt.Errorf("%w: usage: %s %s", api.ErrValidation, c.Command.FullName(), strings.Join(names, " "))
	}
	return nil
}

func (s *Shell) register(c *cli.Context) error {
	if err := requireArgs(c, "NAME", "EMAIL", "PASSWORD"); err != nil {
		return err
	}
	controller := s.deps.Controller
	if snapshot := controller.Snapshot(); snapshot.View != lifecycle.ViewAuth || snapshot.Mode != lifecycle.ModeRegister {
		controller.OpenAuth(lifecycle.ModeRegister)
	}
	controller.SetRegisterForm(lifecycle.RegisterForm{Name: c.Args().Get(0), Email: c.Args().Get(1), Password: c.Args().Get(2)})
	message, err := controller.Register(c.Context)
	if err != nil {
		return err
	}
	s.println(message)
	return nil
}

func (s *Shell) login(c *cli.Context) error {
	if err := requireArgs(c, "EMAIL", "PASSWORD"); err != nil {
		return err
	}
	controller := s.deps.Controller
	if snapshot := controller.Snapshot(); snapshot.View != lifecycle.ViewAuth || snapshot.Mode != lifecycle.ModeLogin {
		controller.OpenAuth(lifecycle.ModeLogin)
	}
	controller.SetLoginForm(lifecycle.LoginForm{Email: c.Args().Get(0), Password: c.Args().Get(1)})
	if err := controller.Login(c.Context); err != nil {
		return err
	}
	s.printf("Logged in as %s.\n", c.Args().Get(0))
	return nil
}

func (s *Shell) mode(c *cli.Context) error {
	if err := requireArgs(c, "login|register"); err != nil {
		return err
	}
	mode, err := lifecycle.ParseMode(c.Args().First())
	if err != nil {
		return err
	}
	s.deps.Controller.OpenAuth(mode)
	s.printf("Mode: %s\n", mode)
	return nil
}

func (s *Shell) logout(c *cli.Context) error {
	if err := s.deps.Controller.Logout(c.Context); err != nil {
		return err
	}
	s.println("Logged out.")
	return nil
}

func (s *Shell) status(c *cli.Context) error {
	snapshot := s.deps.Controller.Snapshot()
	s.printf("State: %s\nView: %s\nMode: %s\n", snapshot.State, snapshot.View, snapshot.Mode)
	if snapshot.Error != "" {
		s.printf("Error: %s\n", snapshot.Error)
	}
	if snapshot.Message != "" {
		s.printf("Message: %s\n", snapshot.Message)
	}
	if snapshot.Notice != "" {
		s.println(snapshot.Notice)
		s.deps.Controller.DismissNotice()
	}
	return nil
}

func (s *Shell) listTransactions(c *cli.Context) error {
	transactions, err := s.deps.Client.ListTransactions(c.Context)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		s.println("No transactions.")
		return nil
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tNOTE")
	for _, tx := range transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", tx.Id, tx.Date, tx.Type, tx.Amount.StringFixed(2), tx.CategoryName(), tx.Note)
	}
	return w.Flush()
}

// applyTransactionFlags copies the flags that were given onto tx.
func (s *Shell) applyTransactionFlags(c *cli.Context, tx *api.Transaction) error {
	if c.IsSet("amount") {
		amount, err := decimal.NewFromString(c.String("amount"))
		if err != nil {
			return fmt.Errorf("%w: invalid amount %q", api.ErrValidation, c.String("amount"))
		}
		tx.Amount = amount
	}
	if c.IsSet("type") || tx.Type == "" {
		txType, err := api.ParseTransactionType(c.String("type"))
		if err != nil {
			return err
		}
		tx.Type = txType
	}
	if c.IsSet("date") {
		date, err := api.ParseDate(c.String("date"))
		if err != nil {
			return err
		}
		tx.Date = date
	} else if tx.Date.IsZero() {
		tx.Date = api.Today(s.deps.Clock.Now())
	}
	if c.IsSet("category") {
		tx.Category = nil
		if id := c.String("category"); id != "" {
			tx.Category = &api.Category{Id: id}
		}
	}
	if c.IsSet("note") {
		tx.Note = c.String("note")
	}
	return nil
}

func (s *Shell) addTransaction(c *cli.Context) error {
	var tx api.Transaction
	if err := s.applyTransactionFlags(c, &tx); err != nil {
		return err
	}
	created, err := s.deps.Client.AddTransaction(c.Context, tx)
	if err != nil {
		return err
	}
	s.printf("Added transaction %s.\n", created.Id)
	return s.listTransactions(c)
}

func (s *Shell) updateTransaction(c *cli.Context) error {
	if err := requireArgs(c, "ID"); err != nil {
		return err
	}
	id := c.Args().First()
	transactions, err := s.deps.Client.ListTransactions(c.Context)
	if err != nil {
		return err
	}
	var tx *api.Transaction
	for i := range transactions {
		if transactions[i].Id == id {
			tx = &transactions[i]
			break
		}
	}
	if tx == nil {
		return fmt.Errorf("%w: no transaction with id %s", api.ErrValidation, id)
	}
	if err := s.applyTransactionFlags(c, tx); err != nil {
		return err
	}
	if _, err := s.deps.Client.UpdateTransaction(c.Context, id, *tx); err != nil {
		return err
	}
	s.printf("Updated transaction %s.\n", id)
	return s.listTransactions(c)
}

func (s *Shell) deleteTransaction(c *cli.Context) error {
	if err := requireArgs(c, "ID"); err != nil {
		return err
	}
	if err := s.deps.Client.DeleteTransaction(c.Context, c.Args().First()); err != nil {
		return err
	}
	s.println("Deleted.")
	return s.listTransactions(c)
}

func (s *Shell) listCategories(c *cli.Context) error {
	categories, err := s.deps.Client.ListCategories(c.Context)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		s.println("No categories.")
		return nil
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, category := range categories {
		fmt.Fprintf(w, "%s\t%s\n", category.Id, category.Name)
	}
	return w.Flush()
}

func (s *Shell) addCategory(c *cli.Context) error {
	if err := requireArgs(c, "NAME"); err != nil {
		return err
	}
	category, err := s.deps.Client.CreateCategory(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	s.printf("Added category %s.\n", category.Name)
	return s.listCategories(c)
}

func (s *Shell) listBudgets(c *cli.Context) error {
	year, month, err := period(c)
	if err != nil {
		return err
	}
	if year == 0 {
		return s.reloadBudgets(c)
	}
	budgets, err := s.deps.Client.ListBudgetsForMonth(c.Context, year, month)
	if err != nil {
		return err
	}
	return s.printBudgets(budgets)
}

func (s *Shell) reloadBudgets(c *cli.Context) error {
	budgets, err := s.deps.Client.ListBudgets(c.Context)
	if err != nil {
		return err
	}
	return s.printBudgets(budgets)
}

func (s *Shell) printBudgets(budgets []api.Budget) error {
	if len(budgets) == 0 {
		s.println("No budgets.")
		return nil
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tLIMIT\tPERIOD")
	for _, budget := range budgets {
		period := "-"
		if budget.Year != 0 && budget.Month != 0 {
			period = fmt.Sprintf("%d-%02d", budget.Year, budget.Month)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", budget.Id, budget.CategoryName(), budget.MonthlyLimit.StringFixed(2), period)
	}
	return w.Flush()
}

func (s *Shell) addBudget(c *cli.Context) error {
	limit, err := decimal.NewFromString(c.String("limit"))
	if err != nil {
		return fmt.Errorf("%w: invalid limit %q", api.ErrValidation, c.String("limit"))
	}
	year, month := c.Int("year"), c.Int("month")
	if year == 0 || month == 0 {
		now := s.deps.Clock.Now()
		year, month = now.Year(), int(now.Month())
	}
	budget, err := s.deps.Client.CreateBudget(c.Context, api.BudgetRequest{
		CategoryId:    c.String("category"),
		MonthlyLimit:  limit,
		Year:          year,
		Month:         month,
		AllowRollover: c.Bool("rollover"),
		PreventExceed: c.Bool("prevent-exceed"),
	})
	if err != nil {
		return err
	}
	s.printf("Added %s budget %s.\n", budget.CategoryName(), budget.Id)
	return s.reloadBudgets(c)
}

func (s *Shell) updateBudget(c *cli.Context) error {
	if err := requireArgs(c, "ID"); err != nil {
		return err
	}
	id := c.Args().First()
	budgets, err := s.deps.Client.ListBudgets(c.Context)
	if err != nil {
		return err
	}
	var req *api.BudgetRequest
	for _, budget := range budgets {
		if budget.Id == id {
			req = &api.BudgetRequest{
				MonthlyLimit:  budget.MonthlyLimit,
				Year:          budget.Year,
				Month:         budget.Month,
				AllowRollover: budget.AllowRollover,
				PreventExceed: budget.PreventExceed,
			}
			if budget.Category != nil {
				req.CategoryId = budget.Category.Id
			}
			break
		}
	}
	if req == nil {
		return fmt.Errorf("%w: no budget with id %s", api.ErrValidation, id)
	}

	if c.IsSet("limit") {
		limit, err := decimal.NewFromString(c.String("limit"))
		if err != nil {
			return fmt.Errorf("%w: invalid limit %q", api.ErrValidation, c.String("limit"))
		}
		req.MonthlyLimit = limit
	}
	if c.IsSet("category") {
		req.CategoryId = c.String("category")
	}
	if c.IsSet("year") {
		req.Year = c.Int("year")
	}
	if c.IsSet("month") {
		req.Month = c.Int("month")
	}
	if c.IsSet("rollover") {
		req.AllowRollover = c.Bool("rollover")
	}
	if c.IsSet("prevent-exceed") {
		req.PreventExceed = c.Bool("prevent-exceed")
	}

	budget, err := s.deps.Client.UpdateBudget(c.Context, id, *req)
	if err != nil {
		return err
	}
	s.printf("Updated %s budget %s.\n", budget.CategoryName(), id)
	return s.reloadBudgets(c)
}

func (s *Shell) deleteBudget(c *cli.Context) error {
	if err := requireArgs(c, "ID"); err != nil {
		return err
	}
	if err := s.deps.Client.DeleteBudget(c.Context, c.Args().First()); err != nil {
		return err
	}
	s.println("Deleted.")
	return s.reloadBudgets(c)
}

// period reads optional YEAR MONTH arguments. Zero values mean the current
// month.
func period(c *cli.Context) (int, int, error) {
	switch c.NArg() {
	case 0:
		return 0, 0, nil
	case 2:
		year, errYear := strconv.Atoi(c.Args().Get(0))
		month, errMonth := strconv.Atoi(c.Args().Get(1))
		if errYear != nil || errMonth != nil {
			return 0, 0, fmt.Errorf("%w: year and month must be numbers", api.ErrValidation)
		}
		return year, month, nil
	}
	return 0, 0, fmt.Errorf("%w: usage: %s [YEAR MONTH]", api.ErrValidation, c.Command.FullName())
}

func (s *Shell) budgetStatus(c *cli.Context) error {
	year, month, err := period(c)
	if err != nil {
		return err
	}
	status, err := s.deps.Client.GetBudgetStatus(c.Context, year, month)
	if err != nil {
		return err
	}
	s.printf("Overall: %s spent of %s (%s%%), %s\n",
		status.OverallSpent.StringFixed(2), status.OverallBudget.StringFixed(2),
		status.OverallUsagePercentage.StringFixed(1), status.OverallStatus)
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, category := range status.CategoryBudgets {
		fmt.Fprintf(w, "%s\t%s / %s\t%s%%\t%s\n", category.CategoryName,
			category.Spent.StringFixed(2), category.Budget.StringFixed(2),
			category.UsagePercentage.StringFixed(1), category.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, alert := range status.Alerts {
		s.printf("[%s] %s\n", alert.Severity, alert.Message)
	}
	return nil
}

func (s *Shell) analytics(c *cli.Context) error {
	year, month, err := period(c)
	if err != nil {
		return err
	}
	report, err := s.deps.AnalyticsService.Load(c.Context, year, month)
	if err != nil {
		return err
	}

	if c.Bool("csv") {
		rendered, err := s.deps.CsvReportRenderer.RenderReport(report)
		if err != nil {
			return err
		}
		s.printf("%s", rendered)
		return nil
	}

	s.printf("%d-%02d\n", report.Year, report.Month)
	s.printf("Income: %s\nExpense: %s\nNet: %s\n",
		report.Summary.Income.StringFixed(2), report.Summary.Expense.StringFixed(2), report.Summary.Net.StringFixed(2))
	if len(report.Breakdown) > 0 {
		s.println("")
		w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
		for _, name := range report.Categories() {
			fmt.Fprintf(w, "%s\t%s\n", name, report.Breakdown[name].StringFixed(2))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if notice := budget_alert.FormatNotice(report.Alerts); notice != "" {
		s.println("")
		s.println(notice)
	}
	return nil
}

func (s *Shell) export(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("%w: usage: export [DIR]", api.ErrValidation)
	}
	path, err := api.SaveExport(c.Context, s.deps.Client, c.Args().First())
	if err != nil {
		return err
	}
	s.printf("Saved export to %s\n", path)
	return nil
}
