package wallet

import "context"

// Repository persists wallets and their transactions. DebitWallet is
// a compare-and-decrement under lock: it must fail with an invalid
// operation error when the balance cannot cover the amount, never
// allowing a shared balance to be overspent by concurrent invoices.
type Repository interface {
	CreateWallet(ctx context.Context, wallet *Wallet) error
	GetWalletByID(ctx context.Context, id string) (*Wallet, error)
	GetWalletsByCustomerID(ctx context.Context, customerID string) ([]*Wallet, error)

	// CreditWallet applies an inbound credit, recording the funding
	// transaction with its remaining amount
	CreditWallet(ctx context.Context, op *Operation) (*Transaction, error)

	// DebitWallet applies an outbound debit atomically: balance check,
	// decrement, transaction record and consumption links against the
	// oldest unconsumed credits, all under the wallet lock
	DebitWallet(ctx context.Context, op *Operation) (*Transaction, error)

	ListTransactions(ctx context.Context, walletID string) ([]*Transaction, error)
	ListConsumptions(ctx context.Context, creditTransactionID string) ([]*Consumption, error)
}
