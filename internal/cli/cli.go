// Package cli implements shopctl, the operator commands run against a live
// shop: schema migrations and the payment recovery scripts.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shopapi/internal/model"
	"shopapi/internal/service"
)

// Env is what the commands need from a running deployment.
type Env struct {
	Payments      service.PaymentService
	Notifications service.NotificationService
	Logger        zerolog.Logger
	// Close releases connections. May be nil.
	Close func() error
}

// Opener builds an Env. It is only called by commands that need services, so
// migrate works against an empty database.
type Opener func(ctx context.Context) (*Env, error)

// Migrator applies the embedded schema migrations.
type Migrator func(ctx context.Context) error

const (
	olderThanFlag = "older-than"
	orderFlag     = "order"
)

var errOrderRequired = errors.New("--order is required")

// NewRootCommand returns the shopctl command tree.
func NewRootCommand(open Opener, migrate Migrator) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operate the shop: migrations and payment recovery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCommand(migrate),
		newRecoverPaymentsCommand(open),
		newExpireSessionsCommand(open),
		newResendConfirmationCommand(open),
	)
	return root
}

func newMigrateCommand(migrate Migrator) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context())
		},
	}
}

func newRecoverPaymentsCommand(open Opener) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		olderThanFlag: &cobraflags.StringFlag{
			Name:  olderThanFlag,
			Value: "10m",
			Usage: "Only sessions pending for longer than this duration",
		},
	}
	var (
		limit  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "recover-payments",
		Short: "Reconcile pending payment sessions against the gateway",
		Long: `Checks every payment session still pending after --older-than with the
gateway and settles it the same way a webhook would. With --dry-run the
gateway is queried but nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, err := time.ParseDuration(flags[olderThanFlag].GetString())
			if err != nil || olderThan <= 0 {
				return fmt.Errorf("invalid --%s %q: must be a positive duration", olderThanFlag, flags[olderThanFlag].GetString())
			}
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				report, err := env.Payments.RecoverStuck(ctx, service.RecoverOptions{
					OlderThan: olderThan,
					Limit:     limit,
					DryRun:    dryRun,
					Source:    model.SourceCLI,
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of sessions to check")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report gateway statuses without settling")
	return cmd
}

func newExpireSessionsCommand(open Opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "expire-sessions",
		Short: "Settle payment sessions past their expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				report, err := env.Payments.ExpireSessions(ctx, limit, model.SourceCLI)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of sessions to settle")
	return cmd
}

func newResendConfirmationCommand(open Opener) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		orderFlag: &cobraflags.StringFlag{
			Name:  orderFlag,
			Usage: "Order id or order number",
		},
	}
	cmd := &cobra.Command{
		Use:   "resend-confirmation",
		Short: "Queue another confirmation email for a paid order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref := flags[orderFlag].GetString()
			if ref == "" {
				return errOrderRequired
			}
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				order, err := env.Notifications.ResendConfirmation(ctx, ref)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "confirmation queued for order %s (%s)\n", order.OrderNumber, order.ID)
				return nil
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func withEnv(cmd *cobra.Command, open Opener, run func(context.Context, *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := open(ctx)
	if err != nil {
		return err
	}
	if env.Close != nil {
		defer func() {
			if err := env.Close(); err != nil {
				env.Logger.Warn().Err(err).Msg("close connections")
			}
		}()
	}
	return run(ctx, env)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
