package plan

import "context"

type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
}
