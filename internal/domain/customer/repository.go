package customer

import "context"

type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	Update(ctx context.Context, customer *Customer) error

	// AssignNumberingSlot atomically assigns the next per-customer
	// numbering slot within the billing entity if the customer does
	// not have one yet, returning the slot in effect.
	AssignNumberingSlot(ctx context.Context, customerID, billingEntityID string) (int, error)
}
