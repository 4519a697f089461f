package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/contenivelabs/renewal/internal/account"
	"github.com/contenivelabs/renewal/internal/clock"
	"github.com/contenivelabs/renewal/internal/config"
	"github.com/contenivelabs/renewal/internal/migration"
	"github.com/contenivelabs/renewal/internal/observability"
	"github.com/contenivelabs/renewal/internal/payment"
	"github.com/contenivelabs/renewal/internal/plan"
	"github.com/contenivelabs/renewal/internal/product"
	"github.com/contenivelabs/renewal/internal/queue"
	renewaldomain "github.com/contenivelabs/renewal/internal/renewal/domain"
	"github.com/contenivelabs/renewal/internal/scheduler"
	"github.com/contenivelabs/renewal/internal/server"
	"github.com/contenivelabs/renewal/internal/subscription"
	"github.com/contenivelabs/renewal/pkg/db"

	renewalmodule "github.com/contenivelabs/renewal/internal/renewal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "renewal",
		Short: "Subscription renewal worker",
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newWorkerCmd(), newExpireCmd())
	return root
}

func baseModules() []fx.Option {
	return []fx.Option{
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
	}
}

func domainModules() []fx.Option {
	return []fx.Option{
		account.Module,
		product.Module,
		plan.Module,
		subscription.Module,
		payment.Module,
		renewalmodule.Module,
		queue.Module,
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(baseModules(), migration.Module)
			app := fx.New(opts...)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}
			return app.Stop(context.Background())
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(baseModules(), domainModules()...)
			opts = append(opts, server.Module)
			fx.New(opts...).Run()
			return nil
		},
	}
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the renewal queue consumer and scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(baseModules(), domainModules()...)
			opts = append(opts, scheduler.Module, fx.Invoke(startWorker))
			fx.New(opts...).Run()
			return nil
		},
	}
}

func newExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire <plan-id>",
		Short: "Run one renewal workflow for an expired plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := snowflake.ParseString(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id %q: %w", args[0], err)
			}

			opts := append(baseModules(), domainModules()...)
			opts = append(opts, fx.Invoke(func(svc renewaldomain.Service, shutdowner fx.Shutdowner) {
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()

					if err := svc.Expire(ctx, planID); err != nil {
						fmt.Fprintln(os.Stderr, err)
					}
					_ = shutdowner.Shutdown()
				}()
			}))
			fx.New(opts...).Run()
			return nil
		},
	}
}

func startWorker(lc fx.Lifecycle, consumer *queue.Consumer, sched *scheduler.Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go consumer.Run(ctx)
			go sched.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
