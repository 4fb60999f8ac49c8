package memory

import (
	"context"
	"sync"
	"time"

	"github.com/billforge/billforge/internal/domain/wallet"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// WalletStore keeps wallet mutations under a single lock so a shared
// balance can never be overspent by concurrent invoices.
type WalletStore struct {
	mu           sync.Mutex
	wallets      map[string]*wallet.Wallet
	transactions []*wallet.Transaction
	consumptions []*wallet.Consumption
}

func NewWalletStore() *WalletStore {
	return &WalletStore{
		wallets: make(map[string]*wallet.Wallet),
	}
}

func (s *WalletStore) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	if err := w.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[w.ID]; exists {
		return ierr.NewError("wallet already exists").
			WithHintf("A wallet with id %s already exists", w.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.wallets[w.ID] = w
	return nil
}

func (s *WalletStore) GetWalletByID(ctx context.Context, id string) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, exists := s.wallets[id]; exists {
		return w, nil
	}
	return nil, ierr.NewError("wallet not found").
		WithHintf("No wallet with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *WalletStore) GetWalletsByCustomerID(ctx context.Context, customerID string) ([]*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*wallet.Wallet
	for _, w := range s.wallets {
		if w.CustomerID == customerID {
			result = append(result, w)
		}
	}
	return result, nil
}

func (s *WalletStore) CreditWallet(ctx context.Context, op *wallet.Operation) (*wallet.Transaction, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if op.Type != types.TransactionTypeCredit {
		return nil, ierr.NewError("operation is not a credit").
			WithHint("CreditWallet only accepts credit operations").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.wallets[op.WalletID]
	if !exists {
		return nil, ierr.NewError("wallet not found").
			WithHintf("No wallet with id %s", op.WalletID).
			Mark(ierr.ErrNotFound)
	}
	if w.WalletStatus == types.WalletStatusTerminated {
		return nil, ierr.NewError("wallet is terminated").
			WithHint("Terminated wallets cannot be credited").
			Mark(ierr.ErrInvalidOperation)
	}

	txn := &wallet.Transaction{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WALLET_TRANSACTION),
		WalletID:        op.WalletID,
		Type:            types.TransactionTypeCredit,
		Amount:          op.Amount,
		RemainingAmount: op.Amount,
		Reason:          op.Reason,
		ReferenceType:   op.ReferenceType,
		ReferenceID:     op.ReferenceID,
		CreatedAt:       time.Now().UTC(),
		TenantID:        types.GetTenantID(ctx),
	}
	s.transactions = append(s.transactions, txn)

	w.Balance = w.Balance.Add(op.Amount)
	return txn, nil
}

// DebitWallet is a compare-and-decrement under the store lock: it
// verifies the balance covers the amount, records the outbound
// transaction and links it to the oldest unconsumed credits.
func (s *WalletStore) DebitWallet(ctx context.Context, op *wallet.Operation) (*wallet.Transaction, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if op.Type != types.TransactionTypeDebit {
		return nil, ierr.NewError("operation is not a debit").
			WithHint("DebitWallet only accepts debit operations").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.wallets[op.WalletID]
	if !exists {
		return nil, ierr.NewError("wallet not found").
			WithHintf("No wallet with id %s", op.WalletID).
			Mark(ierr.ErrNotFound)
	}
	if !w.IsActive() {
		return nil, ierr.NewError("wallet is not active").
			WithHintf("Wallet %s cannot fund consumption in status %s", w.ID, w.WalletStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	if w.Balance.LessThan(op.Amount) {
		return nil, ierr.NewError("insufficient wallet balance").
			WithHintf("Wallet %s balance %s cannot cover %s", w.ID, w.Balance, op.Amount).
			WithReportableDetails(map[string]any{
				"wallet_id": w.ID,
				"balance":   w.Balance.String(),
				"amount":    op.Amount.String(),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	debit := &wallet.Transaction{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WALLET_TRANSACTION),
		WalletID:      op.WalletID,
		Type:          types.TransactionTypeDebit,
		Amount:        op.Amount,
		Reason:        op.Reason,
		ReferenceType: op.ReferenceType,
		ReferenceID:   op.ReferenceID,
		CreatedAt:     time.Now().UTC(),
		TenantID:      types.GetTenantID(ctx),
	}
	s.transactions = append(s.transactions, debit)

	// Draw against the oldest unconsumed credits first
	remaining := op.Amount
	for _, txn := range s.transactions {
		if remaining.IsZero() {
			break
		}
		if txn.WalletID != op.WalletID ||
			txn.Type != types.TransactionTypeCredit ||
			txn.RemainingAmount.IsZero() {
			continue
		}

		drawn := remaining
		if txn.RemainingAmount.LessThan(drawn) {
			drawn = txn.RemainingAmount
		}

		txn.RemainingAmount = txn.RemainingAmount.Sub(drawn)
		remaining = remaining.Sub(drawn)

		s.consumptions = append(s.consumptions, &wallet.Consumption{
			ID:                  types.GenerateUUID(),
			CreditTransactionID: txn.ID,
			DebitTransactionID:  debit.ID,
			Amount:              drawn,
			CreatedAt:           debit.CreatedAt,
		})
	}

	w.Balance = w.Balance.Sub(op.Amount)
	return debit, nil
}

func (s *WalletStore) ListTransactions(ctx context.Context, walletID string) ([]*wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*wallet.Transaction
	for _, txn := range s.transactions {
		if txn.WalletID == walletID {
			result = append(result, txn)
		}
	}
	return result, nil
}

func (s *WalletStore) ListConsumptions(ctx context.Context, creditTransactionID string) ([]*wallet.Consumption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*wallet.Consumption
	for _, c := range s.consumptions {
		if c.CreditTransactionID == creditTransactionID {
			result = append(result, c)
		}
	}
	return result, nil
}
