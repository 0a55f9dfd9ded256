package persistence

import (
	"context"

	"github.com/hms/backend/internal/domain/shared"
	"gorm.io/gorm"
)

type txContextKey struct{}

// GormTransactionManager implements shared.TransactionManager. The
// transactional *gorm.DB handle travels in the context, so repositories
// built with txAware join the ambient transaction automatically.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a transaction manager on the given DB
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside one database transaction. An error from
// fn rolls the whole transaction back.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// txAware embeds the fallback connection and resolves the effective handle
// per call: the transaction from the context when present, the pooled
// connection otherwise.
type txAware struct {
	db *gorm.DB
}

func (t txAware) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return t.db.WithContext(ctx)
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)
