package service

import (
	"context"

	"github.com/billforge/billforge/internal/domain/wallet"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// WalletService manages prepaid credit wallets. Invoice consumption
// goes through the assembler; this surface covers funding and reads.
type WalletService interface {
	CreateWallet(ctx context.Context, customerID, currency string) (*wallet.Wallet, error)
	GetWallet(ctx context.Context, id string) (*wallet.Wallet, error)

	// TopUp credits the wallet, recording the funding transaction
	TopUp(ctx context.Context, walletID string, amount decimal.Decimal, reason types.TransactionReason) (*wallet.Transaction, error)

	ListTransactions(ctx context.Context, walletID string) ([]*wallet.Transaction, error)

	// ListConsumptions returns which debits drew from a funding
	// transaction, preserving the audit trail
	ListConsumptions(ctx context.Context, creditTransactionID string) ([]*wallet.Consumption, error)
}

type walletService struct {
	ServiceParams
}

func NewWalletService(params ServiceParams) WalletService {
	return &walletService{ServiceParams: params}
}

func (s *walletService) CreateWallet(ctx context.Context, customerID, currency string) (*wallet.Wallet, error) {
	if _, err := s.CustomerRepo.Get(ctx, customerID); err != nil {
		return nil, err
	}

	w := wallet.NewWallet(customerID, currency)
	w.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := s.WalletRepo.CreateWallet(ctx, w); err != nil {
		return nil, err
	}

	s.Logger.Infow("created wallet",
		"wallet_id", w.ID,
		"customer_id", customerID,
		"currency", currency,
	)
	return w, nil
}

func (s *walletService) GetWallet(ctx context.Context, id string) (*wallet.Wallet, error) {
	return s.WalletRepo.GetWalletByID(ctx, id)
}

func (s *walletService) TopUp(ctx context.Context, walletID string, amount decimal.Decimal, reason types.TransactionReason) (*wallet.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ierr.NewError("top up amount must be positive").
			WithHint("Please provide a positive amount").
			Mark(ierr.ErrValidation)
	}

	txn, err := s.WalletRepo.CreditWallet(ctx, &wallet.Operation{
		WalletID: walletID,
		Type:     types.TransactionTypeCredit,
		Amount:   amount,
		Reason:   reason,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("credited wallet",
		"wallet_id", walletID,
		"amount", amount,
		"reason", reason,
	)
	return txn, nil
}

func (s *walletService) ListTransactions(ctx context.Context, walletID string) ([]*wallet.Transaction, error) {
	return s.WalletRepo.ListTransactions(ctx, walletID)
}

func (s *walletService) ListConsumptions(ctx context.Context, creditTransactionID string) ([]*wallet.Consumption, error) {
	return s.WalletRepo.ListConsumptions(ctx, creditTransactionID)
}
