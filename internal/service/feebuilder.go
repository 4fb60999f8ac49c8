package service

import (
	"context"
	"time"

	"github.com/billforge/billforge/internal/domain/billingentity"
	"github.com/billforge/billforge/internal/domain/charge"
	"github.com/billforge/billforge/internal/domain/customer"
	"github.com/billforge/billforge/internal/domain/fee"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/domain/subscription"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/pricing"
	"github.com/billforge/billforge/internal/proration"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// BuildParams is one unit of fee computation: a charge of a
// subscription over resolved period boundaries.
type BuildParams struct {
	Subscription *subscription.Subscription
	Charge       *charge.Charge
	Boundaries   types.PeriodBoundaries

	// FullPeriodStart and FullPeriodEnd are the anchor boundaries the
	// proration ratio is derived against. Zero values mean the period
	// is not partial and no proration applies.
	FullPeriodStart time.Time
	FullPeriodEnd   time.Time

	// DeclaredUnits drives the pay in advance delta algorithm; nil for
	// in-arrears usage charges
	DeclaredUnits *decimal.Decimal
}

func (p BuildParams) Validate() error {
	if p.Subscription == nil || p.Charge == nil {
		return ierr.NewError("subscription and charge are required").
			WithHint("Please provide the subscription and charge to bill").
			Mark(ierr.ErrValidation)
	}
	return p.Boundaries.Validate()
}

// FeeBuilder turns aggregated usage into fee records. Build is
// idempotent per (charge, filter, group, subscription, period) key;
// retried jobs resolve to the stored fee instead of double billing.
type FeeBuilder interface {
	Build(ctx context.Context, params BuildParams) ([]*fee.Fee, error)

	// ApplyAdjustments consumes pending manual overrides on a draft
	// invoice's fees, re-deriving amounts and clearing tax snapshots
	// so they are recomputed from the adjusted values
	ApplyAdjustments(ctx context.Context, inv *invoice.Invoice) ([]*fee.Fee, error)
}

type feeBuilder struct {
	ServiceParams
	usage      UsageService
	calculator proration.Calculator
}

func NewFeeBuilder(params ServiceParams) FeeBuilder {
	return &feeBuilder{
		ServiceParams: params,
		usage:         NewUsageService(params),
		calculator:    proration.NewCalculator(),
	}
}

func (s *feeBuilder) Build(ctx context.Context, params BuildParams) ([]*fee.Fee, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	cust, err := s.CustomerRepo.Get(ctx, params.Subscription.CustomerID)
	if err != nil {
		return nil, err
	}

	entity, err := s.BillingEntityRepo.Get(ctx, params.Subscription.BillingEntityID)
	if err != nil {
		return nil, err
	}

	ratio, err := s.periodRatio(params, cust)
	if err != nil {
		return nil, err
	}

	var fees []*fee.Fee
	if params.Charge.PayInAdvance && params.DeclaredUnits != nil {
		fees, err = s.buildAdvanceDelta(ctx, params, cust, entity, ratio)
	} else {
		fees, err = s.buildFromUsage(ctx, params, cust, entity, ratio)
	}
	if err != nil {
		return nil, err
	}

	trueUpFees, err := s.buildTrueUp(ctx, params, cust, ratio, fees)
	if err != nil {
		return nil, err
	}
	fees = append(fees, trueUpFees...)

	return fees, nil
}

// periodRatio derives the covered fraction of the anchor period; 1
// when the charge is not prorated or no anchor was supplied.
func (s *feeBuilder) periodRatio(params BuildParams, cust *customer.Customer) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if !params.Charge.Prorated {
		return one, nil
	}
	if params.FullPeriodStart.IsZero() || params.FullPeriodEnd.IsZero() {
		return one, nil
	}

	return s.calculator.Coefficient(proration.Params{
		From:        params.Boundaries.FromDatetime,
		To:          params.Boundaries.ToDatetime,
		PeriodStart: params.FullPeriodStart,
		PeriodEnd:   params.FullPeriodEnd,
		Timezone:    cust.Timezone,
	})
}

// buildFromUsage is the in-arrears path: aggregate usage per filter
// and group, price each scope, persist one fee per scope.
func (s *feeBuilder) buildFromUsage(
	ctx context.Context,
	params BuildParams,
	cust *customer.Customer,
	entity *billingentity.BillingEntity,
	ratio decimal.Decimal,
) ([]*fee.Fee, error) {
	results, err := s.usage.GetUsage(ctx, params.Subscription, params.Charge, params.Boundaries)
	if err != nil {
		return nil, err
	}

	var fees []*fee.Fee
	for _, result := range results {
		key := fee.LookupKey{
			SubscriptionID: params.Subscription.ID,
			ChargeID:       params.Charge.ID,
			ChargeFilterID: result.ChargeFilterID,
			GroupKey:       result.GroupKey,
			FeeType:        types.FeeTypeCharge,
			PeriodStart:    params.Boundaries.FromDatetime.UTC(),
			PeriodEnd:      params.Boundaries.ToDatetime.UTC(),
		}

		existing, err := s.FeeRepo.FindByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			fees = append(fees, existing)
			continue
		}

		props := params.Charge.PropertiesForFilter(s.filterByID(params.Charge, result.ChargeFilterID))

		in := pricing.Input{
			Units:       result.Value,
			EventsCount: result.EventsCount,
			GroupKey:    result.GroupKey,
			Ratio:       ratio,
		}
		if params.Charge.Model == types.ChargeModelDynamic {
			precise := result.PreciseTotal
			in.PreciseAmount = &precise
		}

		priced, err := pricing.Apply(params.Charge.Model, props, in)
		if err != nil {
			return nil, err
		}

		if ratio.IsZero() {
			priced = pricing.Result{Units: decimal.Zero, UnitAmount: decimal.Zero, Amount: decimal.Zero}
		}
		if priced.Amount.IsZero() && priced.Units.IsZero() && !entity.ZeroAmountFees {
			continue
		}

		newFee := s.newChargeFee(params, cust, result.ChargeFilterID, result.GroupKey, priced, result.EventsCount, ratio)
		created, err := s.persistFee(ctx, newFee, key)
		if err != nil {
			return nil, err
		}
		fees = append(fees, created)
	}

	return fees, nil
}

// buildAdvanceDelta bills pay in advance charges by the delta of the
// declared units against what was already billed this period.
func (s *feeBuilder) buildAdvanceDelta(
	ctx context.Context,
	params BuildParams,
	cust *customer.Customer,
	entity *billingentity.BillingEntity,
	ratio decimal.Decimal,
) ([]*fee.Fee, error) {
	billed, err := s.FeeRepo.ListByCharge(ctx,
		params.Subscription.ID, params.Charge.ID,
		params.Boundaries.FromDatetime, params.Boundaries.ToDatetime)
	if err != nil {
		return nil, err
	}

	alreadyBilled := decimal.Zero
	for _, f := range billed {
		if !f.IsTrueUp() {
			alreadyBilled = alreadyBilled.Add(f.Units)
		}
	}

	delta := params.DeclaredUnits.Sub(alreadyBilled)
	if !delta.IsPositive() {
		if !entity.ZeroAmountFees {
			return nil, nil
		}
		delta = decimal.Zero
	}

	// Delta fees start at the resolution timestamp so repeated
	// upgrades inside one period keep distinct lookup keys
	periodStart := params.Boundaries.Timestamp
	if periodStart.IsZero() {
		periodStart = params.Boundaries.FromDatetime
	}

	key := fee.LookupKey{
		SubscriptionID: params.Subscription.ID,
		ChargeID:       params.Charge.ID,
		FeeType:        types.FeeTypeCharge,
		PeriodStart:    periodStart.UTC(),
		PeriodEnd:      params.Boundaries.ToDatetime.UTC(),
	}

	existing, err := s.FeeRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return []*fee.Fee{existing}, nil
	}

	priced, err := pricing.Apply(params.Charge.Model, params.Charge.Properties, pricing.Input{
		Units: delta,
		Ratio: ratio,
	})
	if err != nil {
		return nil, err
	}

	// A zero covered range bills nothing regardless of the declared
	// units; same policy as the usage path
	if ratio.IsZero() {
		priced = pricing.Result{Units: decimal.Zero, UnitAmount: decimal.Zero, Amount: decimal.Zero}
	}
	if priced.Amount.IsZero() && priced.Units.IsZero() && !entity.ZeroAmountFees {
		return nil, nil
	}

	newFee := s.newChargeFee(params, cust, "", "", priced, 0, ratio)
	newFee.PeriodStart = periodStart.UTC()

	created, err := s.persistFee(ctx, newFee, key)
	if err != nil {
		return nil, err
	}
	return []*fee.Fee{created}, nil
}

// buildTrueUp closes the gap to the charge's prorated contractual
// minimum with a synthetic fee, linked to the first fee of the period
// and never itself trued up again. A minimum with no usage at all still
// bills: the zero-amount base fee is recorded so the true-up has a
// parent to link to.
func (s *feeBuilder) buildTrueUp(
	ctx context.Context,
	params BuildParams,
	cust *customer.Customer,
	ratio decimal.Decimal,
	built []*fee.Fee,
) ([]*fee.Fee, error) {
	if !params.Charge.HasMinAmount() {
		return nil, nil
	}

	all, err := s.FeeRepo.ListByCharge(ctx,
		params.Subscription.ID, params.Charge.ID,
		params.Boundaries.FromDatetime, params.Boundaries.ToDatetime)
	if err != nil {
		return nil, err
	}

	var parent *fee.Fee
	sum := decimal.Zero
	for _, f := range all {
		if f.IsTrueUp() {
			// minimum already enforced for this period
			return nil, nil
		}
		sum = sum.Add(f.Amount)
		if parent == nil {
			parent = f
		}
	}

	precision := types.GetCurrencyPrecision(cust.Currency)
	proratedMin := params.Charge.MinAmount.Mul(ratio).Round(precision)

	gap := proratedMin.Sub(sum)
	if !gap.IsPositive() {
		return nil, nil
	}

	var fees []*fee.Fee
	if parent == nil && len(built) > 0 {
		parent = built[0]
	}
	if parent == nil {
		parent, err = s.buildZeroUsageParent(ctx, params, cust, ratio)
		if err != nil {
			return nil, err
		}
		fees = append(fees, parent)
	}

	trueUp := &fee.Fee{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		SubscriptionID:    params.Subscription.ID,
		CustomerID:        cust.ID,
		FeeType:           types.FeeTypeCharge,
		ChargeID:          params.Charge.ID,
		PeriodStart:       params.Boundaries.FromDatetime.UTC(),
		PeriodEnd:         params.Boundaries.ToDatetime.UTC(),
		Units:             decimal.Zero,
		UnitAmount:        decimal.Zero,
		Amount:            gap,
		Currency:          cust.Currency,
		PaymentStatus:     types.PaymentStatusPending,
		TrueUpParentFeeID: parent.ID,
		DisplayName:       "Minimum commitment true-up",
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}

	if err := s.FeeRepo.Create(ctx, trueUp); err != nil {
		return nil, err
	}
	s.publishFeeCreated(ctx, trueUp)
	return append(fees, trueUp), nil
}

// buildZeroUsageParent records the zero-amount base fee a true-up
// anchors to when the period produced no billable usage.
func (s *feeBuilder) buildZeroUsageParent(ctx context.Context, params BuildParams, cust *customer.Customer, ratio decimal.Decimal) (*fee.Fee, error) {
	key := fee.LookupKey{
		SubscriptionID: params.Subscription.ID,
		ChargeID:       params.Charge.ID,
		FeeType:        types.FeeTypeCharge,
		PeriodStart:    params.Boundaries.FromDatetime.UTC(),
		PeriodEnd:      params.Boundaries.ToDatetime.UTC(),
	}

	zero := pricing.Result{Units: decimal.Zero, UnitAmount: decimal.Zero, Amount: decimal.Zero}
	return s.persistFee(ctx, s.newChargeFee(params, cust, "", "", zero, 0, ratio), key)
}

func (s *feeBuilder) newChargeFee(
	params BuildParams,
	cust *customer.Customer,
	filterID, groupKey string,
	priced pricing.Result,
	eventsCount int64,
	ratio decimal.Decimal,
) *fee.Fee {
	precision := types.GetCurrencyPrecision(cust.Currency)

	return &fee.Fee{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		SubscriptionID:       params.Subscription.ID,
		CustomerID:           cust.ID,
		FeeType:              types.FeeTypeCharge,
		ChargeID:             params.Charge.ID,
		ChargeFilterID:       filterID,
		GroupKey:             groupKey,
		PeriodStart:          params.Boundaries.FromDatetime.UTC(),
		PeriodEnd:            params.Boundaries.ToDatetime.UTC(),
		Units:                priced.Units,
		UnitAmount:           priced.UnitAmount,
		Amount:               priced.Amount.Round(precision),
		ProrationCoefficient: ratio,
		Currency:             cust.Currency,
		EventsCount:          eventsCount,
		PaymentStatus:        types.PaymentStatusPending,
	}
}

// persistFee inserts the fee, resolving a concurrent duplicate insert
// to the fee that won the race.
func (s *feeBuilder) persistFee(ctx context.Context, f *fee.Fee, key fee.LookupKey) (*fee.Fee, error) {
	f.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := s.FeeRepo.Create(ctx, f); err != nil {
		if ierr.IsAlreadyExists(err) {
			existing, findErr := s.FeeRepo.FindByKey(ctx, key)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.publishFeeCreated(ctx, f)
	return f, nil
}

func (s *feeBuilder) publishFeeCreated(ctx context.Context, f *fee.Fee) {
	if s.WebhookPublisher == nil {
		return
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, types.WebhookEventFeeCreated, f); err != nil {
		s.Logger.Errorw("failed to publish fee created event",
			"error", err,
			"fee_id", f.ID,
		)
	}
}

func (s *feeBuilder) ApplyAdjustments(ctx context.Context, inv *invoice.Invoice) ([]*fee.Fee, error) {
	if !inv.IsDraft() {
		return nil, ierr.NewError("invoice is not draft").
			WithHintf("Adjustments only apply while the invoice is draft, status is %s", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	pending, err := s.AdjustedFeeRepo.ListUnconsumedByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	var adjusted []*fee.Fee
	for _, adj := range pending {
		f, err := s.FeeRepo.Get(ctx, adj.FeeID)
		if err != nil {
			return nil, err
		}

		if err := s.applyAdjustment(ctx, f, adj); err != nil {
			return nil, err
		}

		adj.Consumed = true
		if err := s.AdjustedFeeRepo.Update(ctx, adj); err != nil {
			return nil, err
		}
		adjusted = append(adjusted, f)

		s.publishFeeAdjusted(ctx, f)
	}

	return adjusted, nil
}

// applyAdjustment replaces the computed units or amount and clears the
// fee's tax snapshots so taxes re-derive from the adjusted values.
func (s *feeBuilder) applyAdjustment(ctx context.Context, f *fee.Fee, adj *fee.AdjustedFee) error {
	precision := types.GetCurrencyPrecision(f.Currency)

	switch {
	case adj.AdjustedUnits != nil:
		ch, err := s.ChargeRepo.Get(ctx, f.ChargeID)
		if err != nil {
			return err
		}
		props := ch.PropertiesForFilter(s.filterByID(ch, f.ChargeFilterID))

		// Re-pricing keeps the period scaling the fee was built with
		ratio := f.ProrationCoefficient
		if ratio.IsZero() {
			ratio = decimal.NewFromInt(1)
		}

		priced, err := pricing.Apply(ch.Model, props, pricing.Input{
			Units:       *adj.AdjustedUnits,
			EventsCount: f.EventsCount,
			GroupKey:    f.GroupKey,
			Ratio:       ratio,
		})
		if err != nil {
			return err
		}
		f.Units = priced.Units
		f.UnitAmount = priced.UnitAmount
		f.Amount = priced.Amount.Round(precision)

	case adj.AdjustedAmount != nil:
		f.Amount = adj.AdjustedAmount.Round(precision)
		if f.Units.IsPositive() {
			f.UnitAmount = f.Amount.Div(f.Units)
		}
	}

	if adj.DisplayName != "" {
		f.DisplayName = adj.DisplayName
	}
	f.AdjustmentID = adj.ID

	if err := s.TaxAppliedRepo.DeleteByFee(ctx, f.ID); err != nil {
		return err
	}
	f.TaxesAmount = decimal.Zero

	return s.FeeRepo.Update(ctx, f)
}

func (s *feeBuilder) publishFeeAdjusted(ctx context.Context, f *fee.Fee) {
	if s.WebhookPublisher == nil {
		return
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, types.WebhookEventFeeAdjusted, f); err != nil {
		s.Logger.Errorw("failed to publish fee adjusted event",
			"error", err,
			"fee_id", f.ID,
		)
	}
}

func (s *feeBuilder) filterByID(ch *charge.Charge, id string) *charge.Filter {
	if id == "" {
		return nil
	}
	for i := range ch.Filters {
		if ch.Filters[i].ID == id {
			return &ch.Filters[i]
		}
	}
	return nil
}
