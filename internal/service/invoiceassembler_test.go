package service

import (
	"testing"
	"time"

	"github.com/billforge/billforge/internal/domain/billingentity"
	"github.com/billforge/billforge/internal/domain/charge"
	"github.com/billforge/billforge/internal/domain/customer"
	"github.com/billforge/billforge/internal/domain/fee"
	"github.com/billforge/billforge/internal/domain/plan"
	"github.com/billforge/billforge/internal/domain/subscription"
	"github.com/billforge/billforge/internal/domain/wallet"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceAssemblerSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceAssembler
	testData struct {
		customer     *customer.Customer
		entity       *billingentity.BillingEntity
		plan         *plan.Plan
		subscription *subscription.Subscription
		charge       *charge.Charge
		boundaries   types.PeriodBoundaries
	}
}

func TestInvoiceAssembler(t *testing.T) {
	suite.Run(t, new(InvoiceAssemblerSuite))
}

func (s *InvoiceAssemblerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *InvoiceAssemblerSuite) setupService() {
	s.service = NewInvoiceAssembler(ServiceParams{
		Logger:             s.GetLogger(),
		Config:             s.GetConfig(),
		BillableMetricRepo: s.GetStores().BillableMetricRepo,
		EventRepo:          s.GetStores().EventRepo,
		SnapshotRepo:       s.GetStores().SnapshotRepo,
		ChargeRepo:         s.GetStores().ChargeRepo,
		PlanRepo:           s.GetStores().PlanRepo,
		SubRepo:            s.GetStores().SubscriptionRepo,
		CustomerRepo:       s.GetStores().CustomerRepo,
		BillingEntityRepo:  s.GetStores().BillingEntityRepo,
		FeeRepo:            s.GetStores().FeeRepo,
		AdjustedFeeRepo:    s.GetStores().AdjustedFeeRepo,
		TaxRateRepo:        s.GetStores().TaxRepo,
		TaxAppliedRepo:     s.GetStores().AppliedTaxRepo,
		InvoiceRepo:        s.GetStores().InvoiceRepo,
		SequenceRepo:       s.GetStores().SequenceRepo,
		WalletRepo:         s.GetStores().WalletRepo,
		WebhookPublisher:   s.GetWebhookPublisher(),
	})
}

func (s *InvoiceAssemblerSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.entity = &billingentity.BillingEntity{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_ENTITY),
		Code:                 "acme",
		Name:                 "Acme Inc",
		DocumentNumberPrefix: "ACME",
		DocumentNumbering:    types.NumberingPerCustomer,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().BillingEntityRepo.Create(ctx, s.testData.entity))

	s.testData.customer = &customer.Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		ExternalID: "cust-ext-1",
		Name:       "Test Customer",
		Currency:   "usd",
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, s.testData.customer))

	s.testData.plan = &plan.Plan{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Code:      "starter",
		Name:      "Starter",
		Amount:    decimal.NewFromInt(30),
		Currency:  "usd",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, s.testData.plan))

	s.testData.subscription = &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID:         s.testData.customer.ID,
		PlanID:             s.testData.plan.ID,
		BillingEntityID:    s.testData.entity.ID,
		SubscriptionStatus: subscription.StatusActive,
		StartedAt:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, s.testData.subscription))

	s.testData.charge = &charge.Charge{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
		PlanID:      s.testData.plan.ID,
		MetricCode:  "api_calls",
		Model:       types.ChargeModelStandard,
		Properties:  charge.Properties{Amount: decimal.NewFromInt(1)},
		Invoiceable: true,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ChargeRepo.Create(ctx, s.testData.charge))

	s.testData.boundaries = types.PeriodBoundaries{
		FromDatetime: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ToDatetime:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

// pendingFee records an unattached fee covering the test period.
func (s *InvoiceAssemblerSuite) pendingFee(amount decimal.Decimal, groupKey string) *fee.Fee {
	f := &fee.Fee{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		SubscriptionID: s.testData.subscription.ID,
		CustomerID:     s.testData.customer.ID,
		FeeType:        types.FeeTypeCharge,
		ChargeID:       s.testData.charge.ID,
		GroupKey:       groupKey,
		PeriodStart:    s.testData.boundaries.FromDatetime,
		PeriodEnd:      s.testData.boundaries.ToDatetime,
		Units:          amount,
		UnitAmount:     decimal.NewFromInt(1),
		Amount:         amount,
		Currency:       "usd",
		PaymentStatus:  types.PaymentStatusPending,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().FeeRepo.Create(s.GetContext(), f))
	return f
}

func (s *InvoiceAssemblerSuite) fundedWallet(balance decimal.Decimal) *wallet.Wallet {
	ctx := s.GetContext()

	w := wallet.NewWallet(s.testData.customer.ID, "usd")
	w.BaseModel = types.GetDefaultBaseModel(ctx)
	s.NoError(s.GetStores().WalletRepo.CreateWallet(ctx, w))

	if balance.IsPositive() {
		_, err := s.GetStores().WalletRepo.CreditWallet(ctx, &wallet.Operation{
			WalletID: w.ID,
			Type:     types.TransactionTypeCredit,
			Amount:   balance,
			Reason:   types.TransactionReasonPurchasedCredit,
		})
		s.NoError(err)
	}
	return w
}

func (s *InvoiceAssemblerSuite) TestAssembleAttachesPendingFees() {
	f1 := s.pendingFee(decimal.NewFromInt(5), "")
	f2 := s.pendingFee(decimal.NewFromInt(3), "region:eu")

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)
	s.True(inv.IsDraft())
	s.True(inv.FeesAmount.Equal(decimal.NewFromInt(8)), "got %s", inv.FeesAmount)
	s.True(inv.TotalAmount.Equal(decimal.NewFromInt(8)))

	attached, err := s.GetStores().FeeRepo.ListByInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(attached, 2)

	ids := lo.Map(attached, func(f *fee.Fee, _ int) string { return f.ID })
	s.ElementsMatch(ids, []string{f1.ID, f2.ID})
}

func (s *InvoiceAssemblerSuite) TestAssembleIsIdempotent() {
	s.pendingFee(decimal.NewFromInt(5), "")

	params := AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	}

	first, err := s.service.Assemble(s.GetContext(), params)
	s.NoError(err)

	second, err := s.service.Assemble(s.GetContext(), params)
	s.NoError(err)
	s.Equal(first.ID, second.ID)
}

func (s *InvoiceAssemblerSuite) TestFinalizeStampsNumberAndFreezesTotals() {
	s.pendingFee(decimal.NewFromInt(5), "")

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)

	finalized, err := s.service.Finalize(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(finalized.IsFinalized())
	s.Equal("ACME-001-001", finalized.Number)
	s.Equal(int64(1), finalized.SequentialID)
	s.NotNil(finalized.FinalizedAt)

	// finalization is one-way
	_, err = s.service.Finalize(s.GetContext(), inv.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceAssemblerSuite) TestFinalizeDrawsPartialPrepaidCredit() {
	s.pendingFee(decimal.NewFromInt(5), "")
	w := s.fundedWallet(decimal.NewFromInt(3))

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)

	finalized, err := s.service.Finalize(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(finalized.PrepaidCreditAmount.Equal(decimal.NewFromInt(3)), "got %s", finalized.PrepaidCreditAmount)
	s.True(finalized.TotalAmount.Equal(decimal.NewFromInt(2)), "got %s", finalized.TotalAmount)

	refreshed, err := s.GetStores().WalletRepo.GetWalletByID(s.GetContext(), w.ID)
	s.NoError(err)
	s.True(refreshed.Balance.IsZero())
}

func (s *InvoiceAssemblerSuite) TestFinalizeClampsDrawAtSubtotal() {
	s.pendingFee(decimal.NewFromInt(5), "")
	w := s.fundedWallet(decimal.NewFromInt(100))

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)

	finalized, err := s.service.Finalize(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(finalized.PrepaidCreditAmount.Equal(decimal.NewFromInt(5)))
	s.True(finalized.TotalAmount.IsZero(), "got %s", finalized.TotalAmount)

	refreshed, err := s.GetStores().WalletRepo.GetWalletByID(s.GetContext(), w.ID)
	s.NoError(err)
	s.True(refreshed.Balance.Equal(decimal.NewFromInt(95)), "got %s", refreshed.Balance)
}

func (s *InvoiceAssemblerSuite) TestFinalizeFailureLeavesCreditIntact() {
	s.pendingFee(decimal.NewFromInt(5), "")
	w := s.fundedWallet(decimal.NewFromInt(3))

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)

	// numbering misconfiguration fails the finalization before any
	// wallet draw
	s.testData.entity.DocumentNumbering = types.DocumentNumberingScheme("bogus")
	s.NoError(s.GetStores().BillingEntityRepo.Update(s.GetContext(), s.testData.entity))

	_, err = s.service.Finalize(s.GetContext(), inv.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	refreshed, err := s.GetStores().WalletRepo.GetWalletByID(s.GetContext(), w.ID)
	s.NoError(err)
	s.True(refreshed.Balance.Equal(decimal.NewFromInt(3)), "got %s", refreshed.Balance)

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(stored.IsDraft())
	s.True(stored.PrepaidCreditAmount.IsZero())

	// fixing the scheme lets a retry settle the invoice exactly once
	s.testData.entity.DocumentNumbering = types.NumberingPerCustomer
	s.NoError(s.GetStores().BillingEntityRepo.Update(s.GetContext(), s.testData.entity))

	finalized, err := s.service.Finalize(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(finalized.PrepaidCreditAmount.Equal(decimal.NewFromInt(3)))
	s.True(finalized.TotalAmount.Equal(decimal.NewFromInt(2)))

	refreshed, err = s.GetStores().WalletRepo.GetWalletByID(s.GetContext(), w.ID)
	s.NoError(err)
	s.True(refreshed.Balance.IsZero(), "got %s", refreshed.Balance)
}

func (s *InvoiceAssemblerSuite) TestVoidRefundsPrepaidCredit() {
	s.pendingFee(decimal.NewFromInt(5), "")
	w := s.fundedWallet(decimal.NewFromInt(3))

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)

	_, err = s.service.Finalize(s.GetContext(), inv.ID)
	s.NoError(err)

	voided, err := s.service.Void(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoided, voided.InvoiceStatus)
	s.NotNil(voided.VoidedAt)
	// totals stay frozen
	s.True(voided.TotalAmount.Equal(decimal.NewFromInt(2)))

	refreshed, err := s.GetStores().WalletRepo.GetWalletByID(s.GetContext(), w.ID)
	s.NoError(err)
	s.True(refreshed.Balance.Equal(decimal.NewFromInt(3)), "got %s", refreshed.Balance)
}

func (s *InvoiceAssemblerSuite) TestVoidRejectsDraft() {
	s.pendingFee(decimal.NewFromInt(5), "")

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)

	_, err = s.service.Void(s.GetContext(), inv.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceAssemblerSuite) TestRefreshConsumesAdjustments() {
	f := s.pendingFee(decimal.NewFromInt(5), "")

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)
	s.True(inv.FeesAmount.Equal(decimal.NewFromInt(5)))

	adj := &fee.AdjustedFee{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ADJUSTED_FEE),
		FeeID:          f.ID,
		InvoiceID:      inv.ID,
		AdjustedAmount: lo.ToPtr(decimal.NewFromInt(2)),
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().AdjustedFeeRepo.Create(s.GetContext(), adj))

	refreshed, err := s.service.Refresh(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(refreshed.FeesAmount.Equal(decimal.NewFromInt(2)), "got %s", refreshed.FeesAmount)
	s.True(refreshed.TotalAmount.Equal(decimal.NewFromInt(2)))
}

func (s *InvoiceAssemblerSuite) TestRefreshRejectsFinalized() {
	s.pendingFee(decimal.NewFromInt(5), "")

	inv, err := s.service.Assemble(s.GetContext(), AssembleParams{
		SubscriptionID: s.testData.subscription.ID,
		Boundaries:     s.testData.boundaries,
	})
	s.NoError(err)

	_, err = s.service.Finalize(s.GetContext(), inv.ID)
	s.NoError(err)

	_, err = s.service.Refresh(s.GetContext(), inv.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
