package charge

import "context"

type Repository interface {
	Create(ctx context.Context, charge *Charge) error
	Get(ctx context.Context, id string) (*Charge, error)
	ListByPlan(ctx context.Context, planID string) ([]*Charge, error)
}
