// Package memory is an in-memory Store used by the service tests and local
// development. A transaction takes the global lock for its whole duration and
// restores a snapshot on error, giving the same commit-or-rollback semantics
// the services rely on, without a database.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"custora/internal/models"
	"custora/internal/repositories"
)

var errDuplicateKey = errors.New("duplicate idempotency key")

type state struct {
	wallets   map[uint]models.Wallet
	walletSeq uint

	ledger    []models.WalletTransaction
	ledgerSeq uint

	transfers map[string]models.WalletTransfer

	deposits   map[string]models.Deposit
	depositSeq uint

	withdrawals map[string]models.Withdrawal
}

func newState() *state {
	return &state{
		wallets:     make(map[uint]models.Wallet),
		transfers:   make(map[string]models.WalletTransfer),
		deposits:    make(map[string]models.Deposit),
		withdrawals: make(map[string]models.Withdrawal),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.walletSeq = s.walletSeq
	c.ledgerSeq = s.ledgerSeq
	c.depositSeq = s.depositSeq
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	c.ledger = append(c.ledger, s.ledger...)
	for k, v := range s.transfers {
		c.transfers[k] = v
	}
	for k, v := range s.deposits {
		c.deposits[k] = v
	}
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	return c
}

// Store implements repositories.Store in memory.
type Store struct {
	mu sync.Mutex
	st *state

	// inTx suppresses locking on the store handed to a transaction callback;
	// the transaction holds the global lock for its whole duration.
	inTx bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Wallets() repositories.WalletRepository         { return walletRepo{s} }
func (s *Store) Transfers() repositories.TransferRepository     { return transferRepo{s} }
func (s *Store) Deposits() repositories.DepositRepository       { return depositRepo{s} }
func (s *Store) Withdrawals() repositories.WithdrawalRepository { return withdrawalRepo{s} }

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	tx := &Store{st: s.st, inTx: true}
	if err := fn(tx); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type walletRepo struct{ s *Store }

func (r walletRepo) EnsureWallet(ctx context.Context, userID uint, walletType string) (*models.Wallet, error) {
	defer r.s.lock()()
	for _, w := range r.s.st.wallets {
		if w.UserID == userID && w.Type == walletType {
			out := w
			return &out, nil
		}
	}
	r.s.st.walletSeq++
	w := models.Wallet{
		ID:        r.s.st.walletSeq,
		UserID:    userID,
		Type:      walletType,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.s.st.wallets[w.ID] = w
	out := w
	return &out, nil
}

func (r walletRepo) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	defer r.s.lock()()
	w, ok := r.s.st.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	out := w
	return &out, nil
}

func (r walletRepo) GetByUserAndType(ctx context.Context, userID uint, walletType string) (*models.Wallet, error) {
	defer r.s.lock()()
	for _, w := range r.s.st.wallets {
		if w.UserID == userID && w.Type == walletType {
			out := w
			return &out, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r walletRepo) GetByUserAndTypeForUpdate(ctx context.Context, userID uint, walletType string) (*models.Wallet, error) {
	// The transaction already holds the global lock.
	return r.GetByUserAndType(ctx, userID, walletType)
}

func (r walletRepo) UserWallets(ctx context.Context, userID uint) ([]models.Wallet, error) {
	defer r.s.lock()()
	var out []models.Wallet
	for _, w := range r.s.st.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r walletRepo) UpdateBalances(ctx context.Context, wallet *models.Wallet) error {
	defer r.s.lock()()
	w, ok := r.s.st.wallets[wallet.ID]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	w.Balance = wallet.Balance
	w.LockedBalance = wallet.LockedBalance
	w.UpdatedAt = time.Now()
	r.s.st.wallets[w.ID] = w
	return nil
}

func (r walletRepo) CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	defer r.s.lock()()
	if tx.IdempotencyKey != nil {
		for _, row := range r.s.st.ledger {
			if row.WalletID == tx.WalletID && row.IdempotencyKey != nil && *row.IdempotencyKey == *tx.IdempotencyKey {
				return errDuplicateKey
			}
		}
	}
	r.s.st.ledgerSeq++
	tx.ID = r.s.st.ledgerSeq
	tx.CreatedAt = time.Now()
	r.s.st.ledger = append(r.s.st.ledger, *tx)
	return nil
}

func (r walletRepo) FindTransactionByIdempotencyKey(ctx context.Context, walletID uint, key string) (*models.WalletTransaction, error) {
	defer r.s.lock()()
	for _, row := range r.s.st.ledger {
		if row.WalletID == walletID && row.IdempotencyKey != nil && *row.IdempotencyKey == key {
			out := row
			return &out, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r walletRepo) TransactionsByWallet(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, error) {
	defer r.s.lock()()
	var rows []models.WalletTransaction
	for i := len(r.s.st.ledger) - 1; i >= 0; i-- {
		if r.s.st.ledger[i].WalletID == walletID {
			rows = append(rows, r.s.st.ledger[i])
		}
	}
	if offset >= len(rows) {
		return []models.WalletTransaction{}, nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r walletRepo) SumLedger(ctx context.Context, walletID uint, bucket string) (float64, error) {
	defer r.s.lock()()
	var sum float64
	for i := range r.s.st.ledger {
		row := r.s.st.ledger[i]
		if row.WalletID == walletID && row.Bucket == bucket {
			sum += row.Signed()
		}
	}
	return sum, nil
}

type transferRepo struct{ s *Store }

func (r transferRepo) Create(ctx context.Context, transfer *models.WalletTransfer) error {
	defer r.s.lock()()
	transfer.CreatedAt = time.Now()
	transfer.UpdatedAt = time.Now()
	r.s.st.transfers[transfer.ID] = *transfer
	return nil
}

func (r transferRepo) GetByID(ctx context.Context, id string) (*models.WalletTransfer, error) {
	defer r.s.lock()()
	t, ok := r.s.st.transfers[id]
	if !ok {
		return nil, repositories.ErrTransferNotFound
	}
	out := t
	return &out, nil
}

func (r transferRepo) Update(ctx context.Context, transfer *models.WalletTransfer) error {
	defer r.s.lock()()
	if _, ok := r.s.st.transfers[transfer.ID]; !ok {
		return repositories.ErrTransferNotFound
	}
	transfer.UpdatedAt = time.Now()
	r.s.st.transfers[transfer.ID] = *transfer
	return nil
}

func (r transferRepo) MaturedActive(ctx context.Context, now time.Time, limit int) ([]models.WalletTransfer, error) {
	defer r.s.lock()()
	var out []models.WalletTransfer
	for _, t := range r.s.st.transfers {
		if t.Status == models.TransferStatusActive && t.LockedUntil != nil && !t.LockedUntil.After(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LockedUntil.Before(*out[j].LockedUntil) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type depositRepo struct{ s *Store }

func (r depositRepo) Create(ctx context.Context, deposit *models.Deposit) error {
	defer r.s.lock()()
	if _, ok := r.s.st.deposits[deposit.TxID]; ok {
		return repositories.ErrDuplicateDeposit
	}
	r.s.st.depositSeq++
	deposit.ID = r.s.st.depositSeq
	deposit.CreatedAt = time.Now()
	deposit.UpdatedAt = time.Now()
	r.s.st.deposits[deposit.TxID] = *deposit
	return nil
}

func (r depositRepo) GetByTxID(ctx context.Context, txID string) (*models.Deposit, error) {
	defer r.s.lock()()
	d, ok := r.s.st.deposits[txID]
	if !ok {
		return nil, repositories.ErrDepositNotFound
	}
	out := d
	return &out, nil
}

func (r depositRepo) Update(ctx context.Context, deposit *models.Deposit) error {
	defer r.s.lock()()
	if _, ok := r.s.st.deposits[deposit.TxID]; !ok {
		return repositories.ErrDepositNotFound
	}
	deposit.UpdatedAt = time.Now()
	r.s.st.deposits[deposit.TxID] = *deposit
	return nil
}

func (r depositRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error) {
	defer r.s.lock()()
	var out []models.Deposit
	for _, d := range r.s.st.deposits {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []models.Deposit{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type withdrawalRepo struct{ s *Store }

func (r withdrawalRepo) Create(ctx context.Context, w *models.Withdrawal) error {
	defer r.s.lock()()
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()
	r.s.st.withdrawals[w.ID] = *w
	return nil
}

func (r withdrawalRepo) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	defer r.s.lock()()
	w, ok := r.s.st.withdrawals[id]
	if !ok {
		return nil, repositories.ErrWithdrawalNotFound
	}
	out := w
	return &out, nil
}

func (r withdrawalRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Withdrawal, error) {
	return r.GetByID(ctx, id)
}

func (r withdrawalRepo) Update(ctx context.Context, w *models.Withdrawal) error {
	defer r.s.lock()()
	if _, ok := r.s.st.withdrawals[w.ID]; !ok {
		return repositories.ErrWithdrawalNotFound
	}
	w.UpdatedAt = time.Now()
	r.s.st.withdrawals[w.ID] = *w
	return nil
}

func (r withdrawalRepo) ListPending(ctx context.Context, now time.Time) ([]models.Withdrawal, error) {
	defer r.s.lock()()
	var out []models.Withdrawal
	for _, w := range r.s.st.withdrawals {
		if w.Status == models.WithdrawalStatusPending && !w.ProcessingDeadline.Before(now) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r withdrawalRepo) ExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Withdrawal, error) {
	defer r.s.lock()()
	var out []models.Withdrawal
	for _, w := range r.s.st.withdrawals {
		if w.Status == models.WithdrawalStatusPending && w.ProcessingDeadline.Before(now) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
