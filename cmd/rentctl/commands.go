package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Omyelshetty/RentApp/internal/app"
	"github.com/Omyelshetty/RentApp/internal/config"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const commandTimeout = 5 * time.Minute

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rentctl",
		Short:         "RentApp administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("verbose", false, "write application logs to stderr")

	rootCmd.AddCommand(
		migrateCmd(),
		seedAdminCmd(),
		generateDuesCmd(),
		sweepOverdueCmd(),
		renderReceiptCmd(),
	)
	return rootCmd
}

// withApp loads configuration, builds the application with its workers running and
// hands it to fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Nop()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log = logger.NewWithOptions(logger.Options{Env: cfg.Server.Env, Level: cfg.Server.LogLevel, Output: os.Stderr})
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	// The CLI never runs the cron schedule.
	cfg.Billing.SweepEnabled = false
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.Start(context.Background())
	defer a.Close(context.Background())

	return fn(ctx, a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.DB == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Memory store selected; nothing to migrate.")
					return nil
				}
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
				return nil
			})
		},
	}
}

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator login",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("RENTCTL_ADMIN_PASSWORD")
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				user, err := a.Auth.CreateUser(ctx, services.UserInput{
					Name:     name,
					Email:    email,
					Password: password,
					Role:     models.RoleAdmin,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "Administrator", "display name")
	cmd.Flags().String("email", "", "login email")
	cmd.Flags().String("password", "", "login password (default $RENTCTL_ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func generateDuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-dues",
		Short: "Create pending rent records for every active tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, _ := cmd.Flags().GetString("month")
			year, _ := cmd.Flags().GetInt("year")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Dues.GenerateMonthlyDues(ctx, month, year)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: created %d, skipped %d, failed %d\n",
					result.Period, result.CreatedCount, result.SkippedCount, len(result.Failed))
				for _, due := range result.Created {
					fmt.Fprintf(out, "  + %s (%s) %s\n", due.TenantName, due.ApartmentNumber, due.Amount.StringFixed(2))
				}
				for _, failed := range result.Failed {
					fmt.Fprintf(out, "  ! %s: %s\n", failed.TenantName, failed.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("month", "", "billing month name (default current month)")
	cmd.Flags().Int("year", 0, "billing year (default current year)")
	return cmd
}

func sweepOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark pending records past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Sweeper.Sweep(ctx, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Checked %d pending records, marked %d overdue\n",
					result.Checked, result.MarkedOverdue)
				return nil
			})
		},
	}
}

func renderReceiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render-receipt <payment-id>",
		Short: "Render the receipt of a paid record again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid payment id %q: %w", args[0], err)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				record, err := a.Payments.RegenerateReceipt(ctx, id)
				if err != nil {
					return err
				}
				if record.ReceiptStatus != models.ReceiptStatusReady || record.ReceiptURL == nil {
					return fmt.Errorf("receipt %s is %s", record.ReceiptID, record.ReceiptStatus)
				}
				fmt.Fprintln(cmd.OutOrStdout(), *record.ReceiptURL)
				return nil
			})
		},
	}
}
