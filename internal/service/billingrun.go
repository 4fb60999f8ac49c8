package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billforge/billforge/internal/domain/fee"
	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/pubsub"
	"github.com/billforge/billforge/internal/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// RunRequest is one billing pass for a subscription, published on the
// run topic by the scheduler that resolved the period boundaries.
type RunRequest struct {
	SubscriptionID string                 `json:"subscription_id"`
	TenantID       string                 `json:"tenant_id"`
	Boundaries     types.PeriodBoundaries `json:"boundaries"`

	// Finalize stamps and settles the invoice in the same pass; false
	// leaves it draft for review and adjustments
	Finalize bool `json:"finalize"`
}

func (r *RunRequest) Validate() error {
	if r.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Please provide a subscription identifier").
			Mark(ierr.ErrValidation)
	}
	return r.Boundaries.Validate()
}

// BillingRunService executes billing passes. Fee computation for
// distinct charges is independent and runs on a bounded worker pool;
// serialization of shared state (fee keys, sequences, wallet balances)
// comes from the repository guarantees.
type BillingRunService interface {
	// ProcessRun builds every fee of the subscription's plan for the
	// period and assembles them into an invoice
	ProcessRun(ctx context.Context, req *RunRequest) (*invoice.Invoice, error)

	// Start consumes run requests from the run topic until the context
	// is cancelled, reconnecting with exponential backoff
	Start(ctx context.Context, subscriber pubsub.Subscriber) error
}

type billingRunService struct {
	ServiceParams
	feeBuilder FeeBuilder
	assembler  InvoiceAssembler
}

func NewBillingRunService(params ServiceParams) BillingRunService {
	return &billingRunService{
		ServiceParams: params,
		feeBuilder:    NewFeeBuilder(params),
		assembler:     NewInvoiceAssembler(params),
	}
}

func (s *billingRunService) ProcessRun(ctx context.Context, req *RunRequest) (*invoice.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if err := s.buildSubscriptionFee(ctx, req, sub.PlanID); err != nil {
		return nil, err
	}

	charges, err := s.ChargeRepo.ListByPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	// Fees of distinct charges have no ordering requirement; the pool
	// bounds fan-out and the first error cancels the rest
	p := pool.New().
		WithMaxGoroutines(s.Config.Billing.WorkerCount).
		WithContext(ctx).
		WithCancelOnError()

	for _, ch := range charges {
		ch := ch
		if !ch.Invoiceable {
			continue
		}
		p.Go(func(ctx context.Context) error {
			_, err := s.feeBuilder.Build(ctx, BuildParams{
				Subscription: sub,
				Charge:       ch,
				Boundaries:   req.Boundaries,
			})
			return err
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	inv, err := s.assembler.Assemble(ctx, AssembleParams{
		SubscriptionID: sub.ID,
		Boundaries:     req.Boundaries,
	})
	if err != nil {
		return nil, err
	}

	if req.Finalize && inv.IsDraft() {
		return s.assembler.Finalize(ctx, inv.ID)
	}
	return inv, nil
}

// buildSubscriptionFee records the plan's base fee for the period,
// idempotent on the subscription fee lookup key.
func (s *billingRunService) buildSubscriptionFee(ctx context.Context, req *RunRequest, planID string) error {
	p, err := s.PlanRepo.Get(ctx, planID)
	if err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return nil
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return err
	}
	cust, err := s.CustomerRepo.Get(ctx, sub.CustomerID)
	if err != nil {
		return err
	}

	key := fee.LookupKey{
		SubscriptionID: sub.ID,
		FeeType:        types.FeeTypeSubscription,
		PeriodStart:    req.Boundaries.FromDatetime.UTC(),
		PeriodEnd:      req.Boundaries.ToDatetime.UTC(),
	}
	existing, err := s.FeeRepo.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	precision := types.GetCurrencyPrecision(cust.Currency)
	amount := p.Amount.Round(precision)

	f := &fee.Fee{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		SubscriptionID: sub.ID,
		CustomerID:     cust.ID,
		FeeType:        types.FeeTypeSubscription,
		PeriodStart:    key.PeriodStart,
		PeriodEnd:      key.PeriodEnd,
		Units:          decimal.NewFromInt(1),
		UnitAmount:     amount,
		Amount:         amount,
		Currency:       cust.Currency,
		PaymentStatus:  types.PaymentStatusPending,
		DisplayName:    p.Name,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	if err := s.FeeRepo.Create(ctx, f); err != nil {
		if ierr.IsAlreadyExists(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *billingRunService) Start(ctx context.Context, subscriber pubsub.Subscriber) error {
	operation := func() error {
		messages, err := subscriber.Subscribe(ctx, s.Config.Billing.RunTopic)
		if err != nil {
			s.Logger.Errorw("failed to subscribe to run topic",
				"error", err,
				"topic", s.Config.Billing.RunTopic,
			)
			return err
		}

		s.consume(ctx, messages)

		// channel closed without cancellation means the broker went
		// away; trigger a reconnect
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return ierr.NewError("run topic subscription closed").
			Mark(ierr.ErrSystem)
	}

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(operation, bo)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *billingRunService) consume(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		if err := s.handleMessage(ctx, msg); err != nil {
			s.Logger.Errorw("billing run failed",
				"error", err,
				"message_uuid", msg.UUID,
			)
			msg.Nack()
			continue
		}
		msg.Ack()
	}
}

func (s *billingRunService) handleMessage(ctx context.Context, msg *message.Message) error {
	var req RunRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return ierr.WithError(err).
			WithHint("Run request payload is not valid JSON").
			Mark(ierr.ErrValidation)
	}

	if req.TenantID != "" {
		ctx = types.SetTenantID(ctx, req.TenantID)
	}

	inv, err := s.ProcessRun(ctx, &req)
	if err != nil {
		return err
	}

	s.Logger.Infow("processed billing run",
		"subscription_id", req.SubscriptionID,
		"invoice_id", inv.ID,
		"invoice_status", inv.InvoiceStatus,
		"total_amount", inv.TotalAmount,
	)
	return nil
}
