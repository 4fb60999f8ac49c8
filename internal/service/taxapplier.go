package service

import (
	"context"

	"github.com/billforge/billforge/internal/domain/fee"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/domain/tax"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// TaxApplier resolves the taxes of a fee and snapshots them as
// AppliedTax rows. Taxes, once applied, are never recomputed; the
// rows are only replaced when the fee itself is replaced or adjusted.
type TaxApplier interface {
	// Apply resolves and applies taxes for the fee. Explicit codes win
	// over every other source. Returns the snapshot rows; a fee that
	// already carries rows is returned as-is without recomputation.
	Apply(ctx context.Context, f *fee.Fee, explicitCodes []string) ([]*tax.AppliedTax, error)

	// ApplyToInvoice taxes every fee attached to the invoice. Per-fee
	// resolution failures are recorded as error details on the invoice
	// instead of blocking the rest of the batch.
	ApplyToInvoice(ctx context.Context, inv *invoice.Invoice) error
}

type taxApplier struct {
	ServiceParams
}

func NewTaxApplier(params ServiceParams) TaxApplier {
	return &taxApplier{ServiceParams: params}
}

func (s *taxApplier) Apply(ctx context.Context, f *fee.Fee, explicitCodes []string) ([]*tax.AppliedTax, error) {
	existing, err := s.TaxAppliedRepo.ListByFee(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	rates, err := s.resolveRates(ctx, f, explicitCodes)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, nil
	}

	precision := types.GetCurrencyPrecision(f.Currency)
	base := f.TaxableAmount()
	hundred := decimal.NewFromInt(100)

	applied := make([]*tax.AppliedTax, 0, len(rates))
	taxesAmount := decimal.Zero

	for _, rate := range rates {
		amount := base.Mul(rate.Rate).Div(hundred).Round(precision)
		row := tax.NewAppliedTax(f.ID, f.InvoiceID, rate, amount, f.Currency)
		row.BaseModel = types.GetDefaultBaseModel(ctx)

		if err := s.TaxAppliedRepo.Create(ctx, row); err != nil {
			return nil, err
		}
		applied = append(applied, row)
		taxesAmount = taxesAmount.Add(amount)
	}

	f.TaxesAmount = taxesAmount
	if err := s.FeeRepo.Update(ctx, f); err != nil {
		return nil, err
	}

	return applied, nil
}

func (s *taxApplier) ApplyToInvoice(ctx context.Context, inv *invoice.Invoice) error {
	fees, err := s.FeeRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}

	var failed bool
	for _, f := range fees {
		if _, err := s.Apply(ctx, f, nil); err != nil {
			failed = true
			inv.RecordErrorDetail("tax_error:"+f.ID, err.Error())
			s.Logger.Errorw("tax application failed for fee",
				"error", err,
				"fee_id", f.ID,
				"invoice_id", inv.ID,
			)
		}
	}

	if failed {
		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// resolveRates walks the resolution chain: explicit codes, then the
// fee's invoiceable entity (charge or plan), then the customer, then
// the organization defaults. The first non-empty source wins.
func (s *taxApplier) resolveRates(ctx context.Context, f *fee.Fee, explicitCodes []string) ([]*tax.TaxRate, error) {
	if len(explicitCodes) > 0 {
		return s.ratesForCodes(ctx, explicitCodes)
	}

	entityCodes, err := s.entityTaxCodes(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(entityCodes) > 0 {
		return s.ratesForCodes(ctx, entityCodes)
	}

	cust, err := s.CustomerRepo.Get(ctx, f.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(cust.TaxCodes) > 0 {
		return s.ratesForCodes(ctx, cust.TaxCodes)
	}

	entityDefaults, err := s.billingEntityTaxCodes(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(entityDefaults) > 0 {
		return s.ratesForCodes(ctx, entityDefaults)
	}

	return s.TaxRateRepo.ListOrganizationDefaults(ctx)
}

// billingEntityTaxCodes resolves the issuing entity's default codes
// through the fee's subscription.
func (s *taxApplier) billingEntityTaxCodes(ctx context.Context, f *fee.Fee) ([]string, error) {
	if f.SubscriptionID == "" {
		return nil, nil
	}
	sub, err := s.SubRepo.Get(ctx, f.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.BillingEntityID == "" {
		return nil, nil
	}
	entity, err := s.BillingEntityRepo.Get(ctx, sub.BillingEntityID)
	if err != nil {
		return nil, err
	}
	return entity.DefaultTaxCodes, nil
}

func (s *taxApplier) entityTaxCodes(ctx context.Context, f *fee.Fee) ([]string, error) {
	switch f.FeeType {
	case types.FeeTypeCharge:
		if f.ChargeID == "" {
			return nil, nil
		}
		ch, err := s.ChargeRepo.Get(ctx, f.ChargeID)
		if err != nil {
			return nil, err
		}
		if len(ch.TaxCodes) > 0 {
			return ch.TaxCodes, nil
		}
		// fall through to the plan the charge belongs to
		p, err := s.PlanRepo.Get(ctx, ch.PlanID)
		if err != nil {
			return nil, err
		}
		return p.TaxCodes, nil

	case types.FeeTypeSubscription:
		sub, err := s.SubRepo.Get(ctx, f.SubscriptionID)
		if err != nil {
			return nil, err
		}
		p, err := s.PlanRepo.Get(ctx, sub.PlanID)
		if err != nil {
			return nil, err
		}
		return p.TaxCodes, nil

	default:
		return nil, nil
	}
}

func (s *taxApplier) ratesForCodes(ctx context.Context, codes []string) ([]*tax.TaxRate, error) {
	rates, err := s.TaxRateRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("One or more tax codes could not be resolved").
			WithReportableDetails(map[string]any{
				"tax_codes": codes,
			}).
			Mark(ierr.ErrNotFound)
	}
	return rates, nil
}
