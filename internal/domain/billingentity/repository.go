package billingentity

import "context"

type Repository interface {
	Create(ctx context.Context, entity *BillingEntity) error
	Get(ctx context.Context, id string) (*BillingEntity, error)
	Update(ctx context.Context, entity *BillingEntity) error
}
