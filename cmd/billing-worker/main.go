package main

import (
	"context"
	"time"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/domain/billablemetric"
	"github.com/billforge/billforge/internal/domain/billingentity"
	"github.com/billforge/billforge/internal/domain/charge"
	"github.com/billforge/billforge/internal/domain/customer"
	"github.com/billforge/billforge/internal/domain/events"
	"github.com/billforge/billforge/internal/domain/fee"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/domain/plan"
	"github.com/billforge/billforge/internal/domain/subscription"
	"github.com/billforge/billforge/internal/domain/tax"
	"github.com/billforge/billforge/internal/domain/wallet"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/pubsub"
	kafkapubsub "github.com/billforge/billforge/internal/pubsub/kafka"
	"github.com/billforge/billforge/internal/pubsub/memory"
	pubsubRouter "github.com/billforge/billforge/internal/pubsub/router"
	repomemory "github.com/billforge/billforge/internal/repository/memory"
	"github.com/billforge/billforge/internal/service"
	"github.com/billforge/billforge/internal/types"
	"github.com/billforge/billforge/internal/webhook"
	"go.uber.org/fx"
)

func init() {
	// Billing period math assumes UTC everywhere
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// PubSub
			providePubSub,
			pubsubRouter.NewRouter,

			// Repositories
			repomemory.NewRepositories,
			provideRepositories,
		),
	)

	// Webhook module
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewUsageService,
			service.NewFeeBuilder,
			service.NewTaxApplier,
			service.NewSequenceAllocator,
			service.NewInvoiceAssembler,
			service.NewWalletService,
			service.NewBillingRunService,
		),
	)

	opts = append(opts, fx.Invoke(startWorker))

	app := fx.New(opts...)
	app.Run()
}

// providePubSub picks the message bus for the deployment mode: the
// in-process bus for local runs, kafka for everything else.
func providePubSub(cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	switch cfg.Deployment.Mode {
	case types.ModeConsumer:
		return kafkapubsub.NewPubSub(cfg, log)
	default:
		return memory.NewPubSub(log), nil
	}
}

func provideRepositories(repos *repomemory.Repositories) (
	billablemetric.Repository,
	events.Repository,
	events.SnapshotRepository,
	charge.Repository,
	plan.Repository,
	subscription.Repository,
	customer.Repository,
	billingentity.Repository,
	fee.Repository,
	fee.AdjustedFeeRepository,
	tax.Repository,
	tax.AppliedTaxRepository,
	invoice.Repository,
	invoice.SequenceRepository,
	wallet.Repository,
) {
	return repos.BillableMetricRepo,
		repos.EventRepo,
		repos.SnapshotRepo,
		repos.ChargeRepo,
		repos.PlanRepo,
		repos.SubscriptionRepo,
		repos.CustomerRepo,
		repos.BillingEntityRepo,
		repos.FeeRepo,
		repos.AdjustedFeeRepo,
		repos.TaxRepo,
		repos.AppliedTaxRepo,
		repos.InvoiceRepo,
		repos.SequenceRepo,
		repos.WalletRepo
}

func startWorker(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	ps pubsub.PubSub,
	router *pubsubRouter.Router,
	webhookHandler webhook.Handler,
	billingRun service.BillingRunService,
	log *logger.Logger,
) {
	if cfg.Webhook.Enabled {
		webhookHandler.RegisterHandler(router)
	}

	workerCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting billing worker",
				"mode", cfg.Deployment.Mode,
				"run_topic", cfg.Billing.RunTopic,
			)
			go func() {
				if err := router.Run(workerCtx); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			go func() {
				if err := billingRun.Start(workerCtx, ps); err != nil {
					log.Errorw("billing run consumer stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping billing worker")
			cancel()
			if err := router.Close(); err != nil {
				log.Errorw("failed to close message router", "error", err)
			}
			return ps.Close()
		},
	})
}
