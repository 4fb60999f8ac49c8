package types

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/samber/lo"
)

// TransactionType is the direction of a wallet transaction
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

func (t TransactionType) Validate() error {
	allowed := []TransactionType{
		TransactionTypeCredit,
		TransactionTypeDebit,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid transaction type").
			WithHint("Please provide a valid transaction type").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TransactionReason records why a wallet balance moved
type TransactionReason string

const (
	TransactionReasonPurchasedCredit         TransactionReason = "purchased_credit"
	TransactionReasonFreeCredit              TransactionReason = "free_credit"
	TransactionReasonInvoicePayment          TransactionReason = "invoice_payment"
	TransactionReasonInvoiceVoided           TransactionReason = "invoice_voided"
	TransactionReasonCreditExpired           TransactionReason = "credit_expired"
	TransactionReasonManualAdjustment        TransactionReason = "manual_adjustment"
	TransactionReasonSubscriptionTermination TransactionReason = "subscription_termination"
)

func (r TransactionReason) Validate() error {
	allowed := []TransactionReason{
		TransactionReasonPurchasedCredit,
		TransactionReasonFreeCredit,
		TransactionReasonInvoicePayment,
		TransactionReasonInvoiceVoided,
		TransactionReasonCreditExpired,
		TransactionReasonManualAdjustment,
		TransactionReasonSubscriptionTermination,
	}
	if !lo.Contains(allowed, r) {
		return ierr.NewError("invalid transaction reason").
			WithHint("Please provide a valid transaction reason").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// WalletStatus is the lifecycle status of a wallet
type WalletStatus string

const (
	WalletStatusActive     WalletStatus = "active"
	WalletStatusFrozen     WalletStatus = "frozen"
	WalletStatusTerminated WalletStatus = "terminated"
)

func (s WalletStatus) Validate() error {
	allowed := []WalletStatus{
		WalletStatusActive,
		WalletStatusFrozen,
		WalletStatusTerminated,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid wallet status").
			WithHint("Please provide a valid wallet status").
			Mark(ierr.ErrValidation)
	}
	return nil
}
