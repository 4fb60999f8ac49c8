package wallet

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Operation is the request to credit or debit a wallet.
type Operation struct {
	WalletID string `json:"wallet_id"`

	Type types.TransactionType `json:"type"`

	// Amount is the amount to move in the wallet's currency
	Amount decimal.Decimal `json:"amount"`

	Reason types.TransactionReason `json:"transaction_reason"`

	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
}

func (o *Operation) Validate() error {
	if o.WalletID == "" {
		return ierr.NewError("wallet_id is required").
			WithHint("Please provide a wallet identifier").
			Mark(ierr.ErrValidation)
	}
	if err := o.Type.Validate(); err != nil {
		return err
	}
	if err := o.Reason.Validate(); err != nil {
		return err
	}
	if !o.Amount.IsPositive() {
		return ierr.NewError("operation amount must be positive").
			WithHint("Please provide a positive amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}
