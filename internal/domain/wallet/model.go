package wallet

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Wallet is a customer's prepaid credit balance, drawn down to offset
// invoice totals.
type Wallet struct {
	// ID is the unique identifier for the wallet
	ID string `db:"id" json:"id"`

	// CustomerID is the owning customer
	CustomerID string `db:"customer_id" json:"customer_id"`

	// Currency 3 digit ISO currency code in lowercase
	Currency string `db:"currency" json:"currency"`

	// Balance is the spendable amount in main currency units. It is
	// only mutated by compare-and-decrement under repository lock.
	Balance decimal.Decimal `db:"balance" json:"balance"`

	WalletStatus types.WalletStatus `db:"wallet_status" json:"wallet_status"`

	types.BaseModel
}

func NewWallet(customerID, currency string) *Wallet {
	return &Wallet{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WALLET),
		CustomerID:   customerID,
		Currency:     currency,
		Balance:      decimal.Zero,
		WalletStatus: types.WalletStatusActive,
	}
}

func (w *Wallet) Validate() error {
	if w.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Please provide a customer identifier").
			Mark(ierr.ErrValidation)
	}
	if !types.IsValidCurrency(w.Currency) {
		return ierr.NewError("invalid currency").
			WithHintf("Currency %q is not supported", w.Currency).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActive reports whether the wallet can fund consumption
func (w *Wallet) IsActive() bool {
	return w.WalletStatus == types.WalletStatusActive
}
