package repositories

import (
	"context"

	"gorm.io/gorm"
)

// gormStore implements Store on a gorm handle. The same type serves both the
// pooled handle and a handle bound to an open transaction, so repositories
// obtained inside ExecuteInTransaction all share that transaction.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates the production Store.
func NewStore(db *gorm.DB) Store {
	if db == nil {
		panic("db is required")
	}
	return &gormStore{db: db}
}

func (s *gormStore) Wallets() WalletRepository         { return &walletRepository{db: s.db} }
func (s *gormStore) Transfers() TransferRepository     { return &transferRepository{db: s.db} }
func (s *gormStore) Deposits() DepositRepository       { return &depositRepository{db: s.db} }
func (s *gormStore) Withdrawals() WithdrawalRepository { return &withdrawalRepository{db: s.db} }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
