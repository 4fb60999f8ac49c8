package service

import (
	"sync"
	"testing"
	"time"

	"github.com/billforge/billforge/internal/domain/billablemetric"
	"github.com/billforge/billforge/internal/domain/billingentity"
	"github.com/billforge/billforge/internal/domain/charge"
	"github.com/billforge/billforge/internal/domain/customer"
	"github.com/billforge/billforge/internal/domain/events"
	"github.com/billforge/billforge/internal/domain/fee"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/domain/plan"
	"github.com/billforge/billforge/internal/domain/subscription"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type FeeBuilderSuite struct {
	testutil.BaseServiceTestSuite
	service  FeeBuilder
	testData struct {
		customer     *customer.Customer
		entity       *billingentity.BillingEntity
		plan         *plan.Plan
		subscription *subscription.Subscription
		metric       *billablemetric.BillableMetric
		boundaries   types.PeriodBoundaries
	}
}

func TestFeeBuilder(t *testing.T) {
	suite.Run(t, new(FeeBuilderSuite))
}

func (s *FeeBuilderSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *FeeBuilderSuite) setupService() {
	s.service = NewFeeBuilder(ServiceParams{
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

func (s *FeeBuilderSuite) setupTestData() {
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

	s.testData.metric = &billablemetric.BillableMetric{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLABLE_METRIC),
		Code:            "api_calls",
		Name:            "API Calls",
		AggregationType: types.AggregationSum,
		FieldName:       "units",
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().BillableMetricRepo.Create(ctx, s.testData.metric))

	s.testData.boundaries = types.PeriodBoundaries{
		FromDatetime: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ToDatetime:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *FeeBuilderSuite) newCharge(mutate func(*charge.Charge)) *charge.Charge {
	ch := &charge.Charge{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
		PlanID:     s.testData.plan.ID,
		MetricCode: "api_calls",
		Model:      types.ChargeModelStandard,
		Properties: charge.Properties{
			Amount: decimal.RequireFromString("0.05"),
		},
		Invoiceable: true,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(ch)
	}
	s.NoError(s.GetStores().ChargeRepo.Create(s.GetContext(), ch))
	return ch
}

func (s *FeeBuilderSuite) insertUsage(units float64) {
	ts := s.testData.boundaries.FromDatetime.Add(time.Hour)
	ev := events.NewEvent(types.GetTenantID(s.GetContext()), s.testData.subscription.ID, "api_calls", ts,
		map[string]interface{}{"units": units})
	s.NoError(s.GetStores().EventRepo.Insert(s.GetContext(), ev))
}

func (s *FeeBuilderSuite) TestBuildCreatesChargeFee() {
	ch := s.newCharge(nil)
	s.insertUsage(100)

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(fees, 1)

	f := fees[0]
	s.Equal(types.FeeTypeCharge, f.FeeType)
	s.Equal(ch.ID, f.ChargeID)
	s.True(f.Units.Equal(decimal.NewFromInt(100)))
	s.True(f.Amount.Equal(decimal.NewFromInt(5)), "got %s", f.Amount)
	s.Equal("usd", f.Currency)
	s.Equal(types.PaymentStatusPending, f.PaymentStatus)
}

func (s *FeeBuilderSuite) TestBuildIsIdempotent() {
	ch := s.newCharge(nil)
	s.insertUsage(100)

	first, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(first, 1)

	second, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(second, 1)
	s.Equal(first[0].ID, second[0].ID)

	all, err := s.GetStores().FeeRepo.ListByCharge(s.GetContext(), s.testData.subscription.ID, ch.ID,
		s.testData.boundaries.FromDatetime, s.testData.boundaries.ToDatetime)
	s.NoError(err)
	s.Len(all, 1)
}

func (s *FeeBuilderSuite) TestBuildSkipsZeroUsage() {
	ch := s.newCharge(nil)

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Empty(fees)
}

func (s *FeeBuilderSuite) TestBuildRecordsZeroFeeWhenEntityOptsIn() {
	s.testData.entity.ZeroAmountFees = true
	s.NoError(s.GetStores().BillingEntityRepo.Update(s.GetContext(), s.testData.entity))

	ch := s.newCharge(nil)

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(fees, 1)
	s.True(fees[0].Amount.IsZero())
	s.True(fees[0].Units.IsZero())
}

func (s *FeeBuilderSuite) TestBuildTrueUpClosesMinimumGap() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.MinAmount = decimal.NewFromInt(10)
	})
	s.insertUsage(100) // 100 * 0.05 = 5, short of the 10 minimum

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(fees, 2)

	trueUp, found := lo.Find(fees, func(f *fee.Fee) bool { return f.IsTrueUp() })
	s.True(found)
	s.True(trueUp.Amount.Equal(decimal.NewFromInt(5)), "got %s", trueUp.Amount)
	s.True(trueUp.Units.IsZero())
	s.Equal(fees[0].ID, trueUp.TrueUpParentFeeID)
}

func (s *FeeBuilderSuite) TestBuildTrueUpNeverRepeats() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.MinAmount = decimal.NewFromInt(10)
	})
	s.insertUsage(100)

	params := BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	}

	_, err := s.service.Build(s.GetContext(), params)
	s.NoError(err)

	_, err = s.service.Build(s.GetContext(), params)
	s.NoError(err)

	all, err := s.GetStores().FeeRepo.ListByCharge(s.GetContext(), s.testData.subscription.ID, ch.ID,
		s.testData.boundaries.FromDatetime, s.testData.boundaries.ToDatetime)
	s.NoError(err)

	trueUps := lo.Filter(all, func(f *fee.Fee, _ int) bool { return f.IsTrueUp() })
	s.Len(trueUps, 1)
}

func (s *FeeBuilderSuite) TestBuildTrueUpNotNeededWhenMinimumMet() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.MinAmount = decimal.NewFromInt(3)
	})
	s.insertUsage(100) // 5 covers the 3 minimum

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(fees, 1)
	s.False(fees[0].IsTrueUp())
}

func (s *FeeBuilderSuite) TestBuildTrueUpBillsMinimumWithZeroUsage() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.MinAmount = decimal.NewFromInt(10)
	})
	// no events: the contractual minimum is still owed in full

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(fees, 2)

	trueUp, found := lo.Find(fees, func(f *fee.Fee) bool { return f.IsTrueUp() })
	s.True(found)
	s.True(trueUp.Amount.Equal(decimal.NewFromInt(10)), "got %s", trueUp.Amount)

	parent, found := lo.Find(fees, func(f *fee.Fee) bool { return !f.IsTrueUp() })
	s.True(found)
	s.True(parent.Amount.IsZero())
	s.True(parent.Units.IsZero())
	s.Equal(parent.ID, trueUp.TrueUpParentFeeID)

	// a later pass does not bill the minimum again
	_, err = s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)

	all, err := s.GetStores().FeeRepo.ListByCharge(s.GetContext(), s.testData.subscription.ID, ch.ID,
		s.testData.boundaries.FromDatetime, s.testData.boundaries.ToDatetime)
	s.NoError(err)
	s.Len(all, 2)
}

func (s *FeeBuilderSuite) TestBuildAdvanceDeltaBillsDeclaredIncrease() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.PayInAdvance = true
		c.Properties.Amount = decimal.NewFromInt(2)
	})

	boundaries := s.testData.boundaries
	boundaries.Timestamp = boundaries.FromDatetime

	first, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription:  s.testData.subscription,
		Charge:        ch,
		Boundaries:    boundaries,
		DeclaredUnits: lo.ToPtr(decimal.NewFromInt(5)),
	})
	s.NoError(err)
	s.Len(first, 1)
	s.True(first[0].Units.Equal(decimal.NewFromInt(5)))
	s.True(first[0].Amount.Equal(decimal.NewFromInt(10)), "got %s", first[0].Amount)

	// later upgrade in the same period bills only the delta
	boundaries.Timestamp = boundaries.FromDatetime.Add(10 * 24 * time.Hour)
	second, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription:  s.testData.subscription,
		Charge:        ch,
		Boundaries:    boundaries,
		DeclaredUnits: lo.ToPtr(decimal.NewFromInt(8)),
	})
	s.NoError(err)
	s.Len(second, 1)
	s.True(second[0].Units.Equal(decimal.NewFromInt(3)), "got %s", second[0].Units)
	s.True(second[0].Amount.Equal(decimal.NewFromInt(6)), "got %s", second[0].Amount)
	s.Equal(boundaries.Timestamp.UTC(), second[0].PeriodStart)
}

func (s *FeeBuilderSuite) TestBuildAdvanceDeltaSkipsNonPositive() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.PayInAdvance = true
		c.Properties.Amount = decimal.NewFromInt(2)
	})

	boundaries := s.testData.boundaries
	boundaries.Timestamp = boundaries.FromDatetime

	_, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription:  s.testData.subscription,
		Charge:        ch,
		Boundaries:    boundaries,
		DeclaredUnits: lo.ToPtr(decimal.NewFromInt(5)),
	})
	s.NoError(err)

	// downgrade: nothing billed, nothing refunded
	boundaries.Timestamp = boundaries.FromDatetime.Add(10 * 24 * time.Hour)
	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription:  s.testData.subscription,
		Charge:        ch,
		Boundaries:    boundaries,
		DeclaredUnits: lo.ToPtr(decimal.NewFromInt(3)),
	})
	s.NoError(err)
	s.Empty(fees)
}

func (s *FeeBuilderSuite) TestBuildAdvanceDeltaZeroCoveredRange() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.PayInAdvance = true
		c.Prorated = true
		c.Properties.Amount = decimal.NewFromInt(2)
	})

	// covered range collapses to a point inside the 30 day period
	at := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	boundaries := types.PeriodBoundaries{
		FromDatetime: at,
		ToDatetime:   at,
		Timestamp:    at,
	}

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription:    s.testData.subscription,
		Charge:          ch,
		Boundaries:      boundaries,
		FullPeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		FullPeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		DeclaredUnits:   lo.ToPtr(decimal.NewFromInt(100)),
	})
	s.NoError(err)
	s.Empty(fees)

	all, err := s.GetStores().FeeRepo.ListByCharge(s.GetContext(), s.testData.subscription.ID, ch.ID,
		boundaries.FromDatetime, boundaries.ToDatetime)
	s.NoError(err)
	s.Empty(all)
}

func (s *FeeBuilderSuite) TestBuildConcurrentRetriesCreateOneFee() {
	ch := s.newCharge(nil)
	s.insertUsage(100)

	params := BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	}

	const workers = 4
	errs := make([]error, workers)
	results := make([][]*fee.Fee, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.Build(s.GetContext(), params)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		s.NoError(errs[i])
		s.Len(results[i], 1)
		s.Equal(results[0][0].ID, results[i][0].ID)
	}

	all, err := s.GetStores().FeeRepo.ListByCharge(s.GetContext(), s.testData.subscription.ID, ch.ID,
		s.testData.boundaries.FromDatetime, s.testData.boundaries.ToDatetime)
	s.NoError(err)
	s.Len(all, 1)
}

func (s *FeeBuilderSuite) TestBuildProratedChargeScalesAmount() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.Prorated = true
	})
	s.insertUsage(100)

	// covered range is the last 3 days of a 30 day period
	boundaries := types.PeriodBoundaries{
		FromDatetime: time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
		ToDatetime:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		ChargesFrom:  s.testData.boundaries.FromDatetime,
		ChargesTo:    s.testData.boundaries.ToDatetime,
	}

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription:    s.testData.subscription,
		Charge:          ch,
		Boundaries:      boundaries,
		FullPeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		FullPeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Len(fees, 1)
	// 100 * 0.05 * 0.1
	s.True(fees[0].Amount.Equal(decimal.RequireFromString("0.5")), "got %s", fees[0].Amount)
}

func (s *FeeBuilderSuite) TestApplyAdjustmentsRepricesUnits() {
	ch := s.newCharge(nil)
	s.insertUsage(100)

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	s.Len(fees, 1)

	inv := s.attachToDraftInvoice(fees[0])

	adj := &fee.AdjustedFee{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ADJUSTED_FEE),
		FeeID:         fees[0].ID,
		InvoiceID:     inv.ID,
		AdjustedUnits: lo.ToPtr(decimal.NewFromInt(60)),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().AdjustedFeeRepo.Create(s.GetContext(), adj))

	adjusted, err := s.service.ApplyAdjustments(s.GetContext(), inv)
	s.NoError(err)
	s.Len(adjusted, 1)
	s.True(adjusted[0].Units.Equal(decimal.NewFromInt(60)))
	s.True(adjusted[0].Amount.Equal(decimal.NewFromInt(3)), "got %s", adjusted[0].Amount)
	s.Equal(adj.ID, adjusted[0].AdjustmentID)
	s.True(adjusted[0].TaxesAmount.IsZero())

	// the adjustment is consumed and never applied twice
	again, err := s.service.ApplyAdjustments(s.GetContext(), inv)
	s.NoError(err)
	s.Empty(again)
}

func (s *FeeBuilderSuite) TestApplyAdjustmentsKeepsProration() {
	ch := s.newCharge(func(c *charge.Charge) {
		c.Prorated = true
	})
	s.insertUsage(100)

	// last 3 days of a 30 day period, ratio 0.1
	boundaries := types.PeriodBoundaries{
		FromDatetime: time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
		ToDatetime:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		ChargesFrom:  s.testData.boundaries.FromDatetime,
		ChargesTo:    s.testData.boundaries.ToDatetime,
	}

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription:    s.testData.subscription,
		Charge:          ch,
		Boundaries:      boundaries,
		FullPeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		FullPeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Len(fees, 1)
	s.True(fees[0].Amount.Equal(decimal.RequireFromString("0.5")))

	inv := s.attachToDraftInvoice(fees[0])

	adj := &fee.AdjustedFee{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ADJUSTED_FEE),
		FeeID:         fees[0].ID,
		InvoiceID:     inv.ID,
		AdjustedUnits: lo.ToPtr(decimal.NewFromInt(60)),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().AdjustedFeeRepo.Create(s.GetContext(), adj))

	adjusted, err := s.service.ApplyAdjustments(s.GetContext(), inv)
	s.NoError(err)
	s.Len(adjusted, 1)
	// 60 * 0.05 * 0.1, not the unprorated 3
	s.True(adjusted[0].Amount.Equal(decimal.RequireFromString("0.3")), "got %s", adjusted[0].Amount)
}

func (s *FeeBuilderSuite) TestApplyAdjustmentsAmountOverride() {
	ch := s.newCharge(nil)
	s.insertUsage(100)

	fees, err := s.service.Build(s.GetContext(), BuildParams{
		Subscription: s.testData.subscription,
		Charge:       ch,
		Boundaries:   s.testData.boundaries,
	})
	s.NoError(err)
	inv := s.attachToDraftInvoice(fees[0])

	adj := &fee.AdjustedFee{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ADJUSTED_FEE),
		FeeID:          fees[0].ID,
		InvoiceID:      inv.ID,
		AdjustedAmount: lo.ToPtr(decimal.NewFromInt(2)),
		DisplayName:    "Negotiated discount",
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().AdjustedFeeRepo.Create(s.GetContext(), adj))

	adjusted, err := s.service.ApplyAdjustments(s.GetContext(), inv)
	s.NoError(err)
	s.Len(adjusted, 1)
	s.True(adjusted[0].Amount.Equal(decimal.NewFromInt(2)))
	s.Equal("Negotiated discount", adjusted[0].DisplayName)
}

func (s *FeeBuilderSuite) TestApplyAdjustmentsRejectsNonDraft() {
	inv := &invoice.Invoice{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:      s.testData.customer.ID,
		SubscriptionID:  s.testData.subscription.ID,
		BillingEntityID: s.testData.entity.ID,
		Currency:        "usd",
		PeriodStart:     s.testData.boundaries.FromDatetime,
		PeriodEnd:       s.testData.boundaries.ToDatetime,
		InvoiceStatus:   types.InvoiceStatusFinalized,
		PaymentStatus:   types.PaymentStatusPending,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}

	_, err := s.service.ApplyAdjustments(s.GetContext(), inv)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *FeeBuilderSuite) attachToDraftInvoice(f *fee.Fee) *invoice.Invoice {
	ctx := s.GetContext()

	inv := &invoice.Invoice{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:      s.testData.customer.ID,
		SubscriptionID:  s.testData.subscription.ID,
		BillingEntityID: s.testData.entity.ID,
		Currency:        "usd",
		PeriodStart:     s.testData.boundaries.FromDatetime,
		PeriodEnd:       s.testData.boundaries.ToDatetime,
		InvoiceStatus:   types.InvoiceStatusDraft,
		PaymentStatus:   types.PaymentStatusPending,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(ctx, inv))

	f.InvoiceID = inv.ID
	s.NoError(s.GetStores().FeeRepo.Update(ctx, f))
	return inv
}
