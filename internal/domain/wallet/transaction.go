package wallet

import (
	"time"

	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Transaction is one movement of a wallet balance. Inbound credit
// transactions carry a RemainingAmount that consumption links draw
// down, so it stays auditable which funding paid which consumption.
type Transaction struct {
	// ID is the unique identifier for the transaction
	ID string `db:"id" json:"id"`

	// WalletID is the wallet the transaction moved
	WalletID string `db:"wallet_id" json:"wallet_id"`

	// Type is the direction of the movement
	Type types.TransactionType `db:"type" json:"type"`

	// Amount is the absolute moved amount in the wallet currency
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// RemainingAmount is the unconsumed part of an inbound credit;
	// always zero for debits
	RemainingAmount decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`

	// Reason records why the balance moved
	Reason types.TransactionReason `db:"transaction_reason" json:"transaction_reason"`

	// ReferenceType and ReferenceID link the transaction to the entity
	// that caused it, ex an invoice
	ReferenceType string `db:"reference_type" json:"reference_type"`
	ReferenceID   string `db:"reference_id" json:"reference_id"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`

	TenantID string `db:"tenant_id" json:"tenant_id"`
}

// Consumption links an outbound debit to the inbound credit that
// funded it, with the amount drawn from that specific credit.
type Consumption struct {
	// ID is the unique identifier for the consumption link
	ID string `db:"id" json:"id"`

	// CreditTransactionID is the inbound funding transaction
	CreditTransactionID string `db:"credit_transaction_id" json:"credit_transaction_id"`

	// DebitTransactionID is the outbound consuming transaction
	DebitTransactionID string `db:"debit_transaction_id" json:"debit_transaction_id"`

	// Amount drawn from the credit by this debit
	Amount decimal.Decimal `db:"amount" json:"amount"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
