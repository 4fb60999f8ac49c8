package tax

import "context"

type Repository interface {
	Create(ctx context.Context, rate *TaxRate) error
	GetByCode(ctx context.Context, code string) (*TaxRate, error)
	GetByCodes(ctx context.Context, codes []string) ([]*TaxRate, error)

	// ListOrganizationDefaults returns the tenant's taxes marked as
	// organization wide defaults
	ListOrganizationDefaults(ctx context.Context) ([]*TaxRate, error)
}

type AppliedTaxRepository interface {
	Create(ctx context.Context, applied *AppliedTax) error
	ListByFee(ctx context.Context, feeID string) ([]*AppliedTax, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*AppliedTax, error)

	// DeleteByFee drops the fee's tax snapshots so an adjusted fee can
	// have its taxes re-derived
	DeleteByFee(ctx context.Context, feeID string) error
}
