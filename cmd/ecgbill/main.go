package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kdarko/ecgbill/internal/api"
	"github.com/kdarko/ecgbill/internal/billing"
	"github.com/kdarko/ecgbill/internal/config"
	"github.com/kdarko/ecgbill/internal/cron"
	"github.com/kdarko/ecgbill/internal/migrate"
	"github.com/kdarko/ecgbill/internal/tariff"
)

func main() {
	root := &cobra.Command{
		Use:           "ecgbill",
		Short:         "ecgbill - electricity tariff and billing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newBillCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			mux := api.NewMux(cfg)

			addr := ":" + cfg.Port
			log.Printf("ecgbill listening on %s (driver=%s)", addr, cfg.DBDriver)
			return http.ListenAndServe(addr, mux)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	var policyKey string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the gazette refresh worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := cron.Run(ctx, cfg.DBDriver, cfg.DBDSN, cfg.GazettePDFPath, policyKey)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&policyKey, "policy", tariff.DefaultPolicyKey, "tariff policy revision to refresh")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	run := func(fn func(context.Context, string, string) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cfg.DBDriver == "memory" {
				return fmt.Errorf("migrations require a database driver (ECGBILL_DB_DRIVER=sqlite|postgres|postgrespool)")
			}
			return fn(c.Context(), cfg.DBDriver, cfg.DBDSN)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(migrate.Up)},
		&cobra.Command{Use: "down", Short: "Roll back the latest migration", RunE: run(migrate.Down)},
		&cobra.Command{Use: "status", Short: "Print migration status", RunE: run(migrate.Status)},
	)
	return cmd
}

func newBillCmd() *cobra.Command {
	var (
		policyKey string
		class     string
		mode      string
		req       billing.Request
	)

	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Compute one bill from the built-in schedule and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := tariff.GetPolicy(policyKey)
			if !ok {
				return fmt.Errorf("unknown tariff policy %q", policyKey)
			}
			req.Class = tariff.Class(class)
			req.Mode = billing.Mode(mode)

			result := billing.Compute(p, p.Defaults, req)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&policyKey, "policy", tariff.DefaultPolicyKey, "tariff policy revision")
	cmd.Flags().StringVar(&class, "class", string(tariff.ClassResidential), "customer class (residential|non_residential)")
	cmd.Flags().StringVar(&mode, "mode", string(billing.ModeQuick), "billing mode (quick|detailed)")
	cmd.Flags().Float64Var(&req.PreviousReading, "previous", 0, "previous meter reading in kWh")
	cmd.Flags().Float64Var(&req.CurrentReading, "current", 0, "current meter reading in kWh")
	cmd.Flags().IntVar(&req.PeriodDays, "days", 31, "billing period in days (detailed mode)")
	cmd.Flags().Float64Var(&req.PriorBalance, "balance", 0, "prior balance in GHS (detailed mode)")
	cmd.Flags().Float64Var(&req.Payments, "payments", 0, "payments received in GHS (detailed mode)")
	cmd.Flags().Float64Var(&req.Adjustment, "adjustment", 0, "manual adjustment in GHS (detailed mode)")
	return cmd
}
