package service

import (
	"context"
	"time"

	"github.com/billforge/billforge/internal/domain/fee"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/domain/wallet"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/idempotency"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// AssembleParams describes one subscription invoice to build.
type AssembleParams struct {
	SubscriptionID string
	Boundaries     types.PeriodBoundaries
}

// InvoiceAssembler builds draft invoices from pending fees and owns
// the draft -> finalized -> voided lifecycle. Totals always derive
// from the rounded amounts stored on the attached fees.
type InvoiceAssembler interface {
	// Assemble gathers the subscription's pending fees for the period
	// into a draft invoice. Idempotent per (subscription, period).
	Assemble(ctx context.Context, params AssembleParams) (*invoice.Invoice, error)

	// Refresh re-derives a draft invoice: consumes pending fee
	// adjustments, re-applies taxes and recomputes totals
	Refresh(ctx context.Context, invoiceID string) (*invoice.Invoice, error)

	// Finalize stamps the document number, draws prepaid credit under
	// the wallet lock and freezes totals. One-way.
	Finalize(ctx context.Context, invoiceID string) (*invoice.Invoice, error)

	// Void marks a finalized invoice void and returns any consumed
	// prepaid credit to the wallet. Totals stay frozen.
	Void(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
}

type invoiceAssembler struct {
	ServiceParams
	feeBuilder FeeBuilder
	taxApplier TaxApplier
	allocator  SequenceAllocator
	idgen      *idempotency.Generator
}

func NewInvoiceAssembler(params ServiceParams) InvoiceAssembler {
	return &invoiceAssembler{
		ServiceParams: params,
		feeBuilder:    NewFeeBuilder(params),
		taxApplier:    NewTaxApplier(params),
		allocator:     NewSequenceAllocator(params),
		idgen:         idempotency.NewGenerator(),
	}
}

func (s *invoiceAssembler) Assemble(ctx context.Context, params AssembleParams) (*invoice.Invoice, error) {
	if err := params.Boundaries.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, params.SubscriptionID)
	if err != nil {
		return nil, err
	}
	cust, err := s.CustomerRepo.Get(ctx, sub.CustomerID)
	if err != nil {
		return nil, err
	}

	key := s.idgen.GenerateKey(idempotency.ScopeSubscriptionInvoice, map[string]interface{}{
		"subscription_id": sub.ID,
		"period_start":    params.Boundaries.FromDatetime.UTC().Format(time.RFC3339),
		"period_end":      params.Boundaries.ToDatetime.UTC().Format(time.RFC3339),
	})

	existing, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	inv := &invoice.Invoice{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:      cust.ID,
		SubscriptionID:  sub.ID,
		BillingEntityID: sub.BillingEntityID,
		Currency:        cust.Currency,
		PeriodStart:     params.Boundaries.FromDatetime.UTC(),
		PeriodEnd:       params.Boundaries.ToDatetime.UTC(),
		InvoiceStatus:   types.InvoiceStatusDraft,
		PaymentStatus:   types.PaymentStatusPending,
		IdempotencyKey:  key,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}

	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		if ierr.IsAlreadyExists(err) {
			return s.InvoiceRepo.GetByIdempotencyKey(ctx, key)
		}
		return nil, err
	}

	pending, err := s.FeeRepo.ListPending(ctx, sub.ID, inv.PeriodStart, inv.PeriodEnd)
	if err != nil {
		return nil, err
	}
	for _, f := range pending {
		f.InvoiceID = inv.ID
		if err := s.FeeRepo.Update(ctx, f); err != nil {
			return nil, err
		}
	}

	if err := s.taxApplier.ApplyToInvoice(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.recomputeTotals(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *invoiceAssembler) Refresh(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.IsDraft() {
		return nil, ierr.NewError("invoice is not draft").
			WithHintf("Only draft invoices can be refreshed, status is %s", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	if _, err := s.feeBuilder.ApplyAdjustments(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.taxApplier.ApplyToInvoice(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.recomputeTotals(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceAssembler) Finalize(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.IsDraft() {
		return nil, ierr.NewError("invoice is not draft").
			WithHintf("Only draft invoices can be finalized, status is %s", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	entity, err := s.BillingEntityRepo.Get(ctx, inv.BillingEntityID)
	if err != nil {
		return nil, err
	}

	if err := s.recomputeTotals(ctx, inv); err != nil {
		return nil, err
	}

	// The number is allocated before the wallet is touched so scheme
	// and sequence failures leave the customer's credit intact. The
	// draw happens last and is compensated if the final persist fails,
	// so a retried Finalize never debits twice.
	alloc, err := s.allocator.AllocateNumber(ctx, inv, entity)
	if err != nil {
		return nil, err
	}

	prepaid, err := s.applyPrepaidCredit(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.PrepaidCreditAmount = prepaid
	inv.TotalAmount = inv.Subtotal().Sub(prepaid)

	if err := inv.MarkFinalized(alloc.Number, alloc.SequentialID, time.Now().UTC()); err != nil {
		s.rollbackPrepaidCredit(ctx, inv, prepaid)
		return nil, err
	}
	inv.BillingEntitySequentialID = alloc.BillingEntitySequentialID

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		s.rollbackPrepaidCredit(ctx, inv, prepaid)
		return nil, err
	}

	s.publishInvoiceEvent(ctx, types.WebhookEventInvoiceFinalized, inv)
	return inv, nil
}

func (s *invoiceAssembler) Void(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := inv.MarkVoided(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	if inv.PrepaidCreditAmount.IsPositive() {
		if err := s.returnCredit(ctx, inv, inv.PrepaidCreditAmount); err != nil {
			return nil, err
		}
	}

	s.publishInvoiceEvent(ctx, types.WebhookEventInvoiceVoided, inv)
	return inv, nil
}

// recomputeTotals derives the invoice totals from the rounded amounts
// stored on attached fees. Prepaid credit is untouched here; it is
// settled once, at finalization.
func (s *invoiceAssembler) recomputeTotals(ctx context.Context, inv *invoice.Invoice) error {
	fees, err := s.FeeRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}

	feesAmount := decimal.Zero
	taxesAmount := decimal.Zero
	for _, f := range fees {
		feesAmount = feesAmount.Add(f.Amount)
		taxesAmount = taxesAmount.Add(f.TaxesAmount)
	}

	inv.FeesAmount = feesAmount
	inv.TaxesAmount = taxesAmount
	inv.TotalAmount = inv.Subtotal().Sub(inv.PrepaidCreditAmount)

	return s.InvoiceRepo.Update(ctx, inv)
}

// applyPrepaidCredit draws the customer's wallet balance against the
// invoice. The draw is capped per fee at the fee's rounded tax
// inclusive amount, and the summed caps are clamped at the invoice's
// own rounded subtotal, so per-fee rounding can never push the total
// negative. The actual decrement is a compare-and-decrement inside the
// wallet repository.
func (s *invoiceAssembler) applyPrepaidCredit(ctx context.Context, inv *invoice.Invoice) (decimal.Decimal, error) {
	wallets, err := s.WalletRepo.GetWalletsByCustomerID(ctx, inv.CustomerID)
	if err != nil {
		return decimal.Zero, err
	}

	available := decimal.Zero
	var usable []*wallet.Wallet
	for _, w := range wallets {
		if w.IsActive() && w.Currency == inv.Currency {
			usable = append(usable, w)
			available = available.Add(w.Balance)
		}
	}
	if available.IsZero() {
		return decimal.Zero, nil
	}

	fees, err := s.FeeRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return decimal.Zero, err
	}

	draw := s.cappedDraw(fees, available, inv.Subtotal())
	if !draw.IsPositive() {
		return decimal.Zero, nil
	}

	remaining := draw
	for _, w := range usable {
		if !remaining.IsPositive() {
			break
		}
		amount := decimal.Min(remaining, w.Balance)
		if !amount.IsPositive() {
			continue
		}

		if _, err := s.WalletRepo.DebitWallet(ctx, &wallet.Operation{
			WalletID:      w.ID,
			Type:          types.TransactionTypeDebit,
			Amount:        amount,
			Reason:        types.TransactionReasonInvoicePayment,
			ReferenceType: "invoice",
			ReferenceID:   inv.ID,
		}); err != nil {
			return decimal.Zero, err
		}
		remaining = remaining.Sub(amount)

		if w.Balance.IsZero() {
			s.publishWalletDepleted(ctx, w)
		}
	}

	return draw.Sub(remaining), nil
}

// cappedDraw computes the wallet draw: per fee capped at the rounded
// fee.amount + fee.taxes, summed, then clamped at the available
// balance and at the invoice subtotal.
func (s *invoiceAssembler) cappedDraw(fees []*fee.Fee, available, subtotal decimal.Decimal) decimal.Decimal {
	draw := decimal.Zero
	remaining := available
	for _, f := range fees {
		if !remaining.IsPositive() {
			break
		}
		feeCap := decimal.Min(remaining, f.TotalAmount())
		if feeCap.IsPositive() {
			draw = draw.Add(feeCap)
			remaining = remaining.Sub(feeCap)
		}
	}
	return decimal.Min(draw, subtotal)
}

// returnCredit puts a consumed credit amount back on the customer's
// wallet, on void and when finalization fails after the draw.
func (s *invoiceAssembler) returnCredit(ctx context.Context, inv *invoice.Invoice, amount decimal.Decimal) error {
	wallets, err := s.WalletRepo.GetWalletsByCustomerID(ctx, inv.CustomerID)
	if err != nil {
		return err
	}
	for _, w := range wallets {
		if w.Currency != inv.Currency || w.WalletStatus == types.WalletStatusTerminated {
			continue
		}
		_, err := s.WalletRepo.CreditWallet(ctx, &wallet.Operation{
			WalletID:      w.ID,
			Type:          types.TransactionTypeCredit,
			Amount:        amount,
			Reason:        types.TransactionReasonInvoiceVoided,
			ReferenceType: "invoice",
			ReferenceID:   inv.ID,
		})
		return err
	}

	s.Logger.Warnw("no wallet available to return invoice credit",
		"invoice_id", inv.ID,
		"customer_id", inv.CustomerID,
		"amount", amount,
	)
	return nil
}

// rollbackPrepaidCredit compensates a wallet draw whose finalization
// did not complete. Failure here is logged, not returned: the caller
// is already on an error path.
func (s *invoiceAssembler) rollbackPrepaidCredit(ctx context.Context, inv *invoice.Invoice, prepaid decimal.Decimal) {
	if !prepaid.IsPositive() {
		return
	}
	inv.PrepaidCreditAmount = decimal.Zero
	inv.TotalAmount = inv.Subtotal()
	if err := s.returnCredit(ctx, inv, prepaid); err != nil {
		s.Logger.Errorw("failed to return prepaid credit after finalization failure",
			"error", err,
			"invoice_id", inv.ID,
			"amount", prepaid,
		)
	}
}

func (s *invoiceAssembler) publishInvoiceEvent(ctx context.Context, eventName string, inv *invoice.Invoice) {
	if s.WebhookPublisher == nil {
		return
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, eventName, inv); err != nil {
		s.Logger.Errorw("failed to publish invoice event",
			"error", err,
			"event_name", eventName,
			"invoice_id", inv.ID,
		)
	}
}

func (s *invoiceAssembler) publishWalletDepleted(ctx context.Context, w *wallet.Wallet) {
	if s.WebhookPublisher == nil {
		return
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, types.WebhookEventWalletDepleted, w); err != nil {
		s.Logger.Errorw("failed to publish wallet depleted event",
			"error", err,
			"wallet_id", w.ID,
		)
	}
}
