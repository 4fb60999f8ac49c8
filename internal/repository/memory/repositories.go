package memory

import (
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
)

// Repositories bundles one in-memory instance of every store.
type Repositories struct {
	BillableMetricRepo billablemetric.Repository
	EventRepo          events.Repository
	SnapshotRepo       events.SnapshotRepository
	ChargeRepo         charge.Repository
	PlanRepo           plan.Repository
	SubscriptionRepo   subscription.Repository
	CustomerRepo       customer.Repository
	BillingEntityRepo  billingentity.Repository
	FeeRepo            fee.Repository
	AdjustedFeeRepo    fee.AdjustedFeeRepository
	TaxRepo            tax.Repository
	AppliedTaxRepo     tax.AppliedTaxRepository
	InvoiceRepo        invoice.Repository
	SequenceRepo       invoice.SequenceRepository
	WalletRepo         wallet.Repository
}

func NewRepositories() *Repositories {
	return &Repositories{
		BillableMetricRepo: NewBillableMetricStore(),
		EventRepo:          NewEventStore(),
		SnapshotRepo:       NewSnapshotStore(),
		ChargeRepo:         NewChargeStore(),
		PlanRepo:           NewPlanStore(),
		SubscriptionRepo:   NewSubscriptionStore(),
		CustomerRepo:       NewCustomerStore(),
		BillingEntityRepo:  NewBillingEntityStore(),
		FeeRepo:            NewFeeStore(),
		AdjustedFeeRepo:    NewAdjustedFeeStore(),
		TaxRepo:            NewTaxRateStore(),
		AppliedTaxRepo:     NewAppliedTaxStore(),
		InvoiceRepo:        NewInvoiceStore(),
		SequenceRepo:       NewSequenceStore(),
		WalletRepo:         NewWalletStore(),
	}
}
