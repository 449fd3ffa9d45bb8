package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/config"
	"github.com/congo-pay/tradepay/internal/infra"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/logging"
	"github.com/congo-pay/tradepay/internal/money"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tradepayctl",
		Short:         "Operator tooling for the tradepay backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(accountCmd())
	root.AddCommand(logsCmd())
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cfg.DatabaseURL == "" {
		return config.Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	for _, dir := range []infra.Direction{infra.Up, infra.Down} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(dir),
			Short: fmt.Sprintf("Run all %s migrations", dir),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return infra.Migrate(cfg.DatabaseURL, dir, logging.New(cfg.LogLevel))
			},
		})
	}
	return cmd
}

type accountFlags struct {
	name     string
	email    string
	role     string
	balance  string
	password string
}

func (f accountFlags) input() (account.OpenInput, error) {
	role, err := account.ParseRole(f.role)
	if err != nil {
		return account.OpenInput{}, err
	}
	amount, err := decimal.NewFromString(f.balance)
	if err != nil {
		return account.OpenInput{}, fmt.Errorf("invalid --balance %q: %w", f.balance, err)
	}
	var minor int64
	if !amount.IsZero() {
		if minor, err = money.ToMinor(amount); err != nil {
			return account.OpenInput{}, err
		}
	}
	return account.OpenInput{Name: f.name, Email: f.email, Role: role, Secret: f.password, Balance: minor}, nil
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var flags accountFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision an account directly, e.g. an ADMIN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			acct, err := account.NewService(account.NewPostgresRepository(db)).Open(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s) balance %s\n", acct.Role, acct.ID, acct.Email, money.Format(acct.Balance))
			return nil
		},
	}
	create.Flags().StringVar(&flags.name, "name", "", "display name")
	create.Flags().StringVar(&flags.email, "email", "", "login email")
	create.Flags().StringVar(&flags.role, "role", string(account.RoleClient), "CLIENT, MERCHANT, SUPPLIER or ADMIN")
	create.Flags().StringVar(&flags.balance, "balance", "0", "opening balance in major units")
	create.Flags().StringVar(&flags.password, "password", "", "login and transfer password")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the transaction audit trail",
	}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 || limit < 1 {
				return fmt.Errorf("--page and --limit must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			l := ledger.NewPostgresLedger(db)
			total, err := l.CountLogs(ctx)
			if err != nil {
				return err
			}
			entries, err := l.ListLogs(ctx, (page-1)*limit, limit)
			if err != nil {
				return err
			}
			return printLogs(cmd.OutOrStdout(), entries, page, limit, total)
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	list.Flags().IntVar(&limit, "limit", 20, "entries per page")

	cmd.AddCommand(list)
	return cmd
}

func printLogs(w io.Writer, entries []ledger.LogEntry, page, limit, total int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tAMOUNT\tPAYER\tPAYEE\tTRANSACTION\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.Status, money.Format(e.Amount), e.PayerID, e.PayeeID, e.TransactionID, e.ErrorMessage)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pages := (total + limit - 1) / limit
	_, err := fmt.Fprintf(w, "page %d of %d, %d entries\n", page, pages, total)
	return err
}
