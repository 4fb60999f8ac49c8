package service

import (
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
	"github.com/billforge/billforge/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	BillableMetricRepo billablemetric.Repository
	EventRepo          events.Repository
	SnapshotRepo       events.SnapshotRepository
	ChargeRepo         charge.Repository
	PlanRepo           plan.Repository
	SubRepo            subscription.Repository
	CustomerRepo       customer.Repository
	BillingEntityRepo  billingentity.Repository
	FeeRepo            fee.Repository
	AdjustedFeeRepo    fee.AdjustedFeeRepository
	TaxRateRepo        tax.Repository
	TaxAppliedRepo     tax.AppliedTaxRepository
	InvoiceRepo        invoice.Repository
	SequenceRepo       invoice.SequenceRepository
	WalletRepo         wallet.Repository

	// Publishers
	WebhookPublisher publisher.WebhookPublisher
}

// NewServiceParams assembles the common service dependencies.
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	billableMetricRepo billablemetric.Repository,
	eventRepo events.Repository,
	snapshotRepo events.SnapshotRepository,
	chargeRepo charge.Repository,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	customerRepo customer.Repository,
	billingEntityRepo billingentity.Repository,
	feeRepo fee.Repository,
	adjustedFeeRepo fee.AdjustedFeeRepository,
	taxRateRepo tax.Repository,
	taxAppliedRepo tax.AppliedTaxRepository,
	invoiceRepo invoice.Repository,
	sequenceRepo invoice.SequenceRepository,
	walletRepo wallet.Repository,
	webhookPublisher publisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:             logger,
		Config:             config,
		BillableMetricRepo: billableMetricRepo,
		EventRepo:          eventRepo,
		SnapshotRepo:       snapshotRepo,
		ChargeRepo:         chargeRepo,
		PlanRepo:           planRepo,
		SubRepo:            subRepo,
		CustomerRepo:       customerRepo,
		BillingEntityRepo:  billingEntityRepo,
		FeeRepo:            feeRepo,
		AdjustedFeeRepo:    adjustedFeeRepo,
		TaxRateRepo:        taxRateRepo,
		TaxAppliedRepo:     taxAppliedRepo,
		InvoiceRepo:        invoiceRepo,
		SequenceRepo:       sequenceRepo,
		WalletRepo:         walletRepo,
		WebhookPublisher:   webhookPublisher,
	}
}
