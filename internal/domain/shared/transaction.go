package shared

import "context"

// TransactionManager runs a function inside one database transaction. The
// transactional handle travels in the context, so repositories called with
// the inner context join the same transaction. Returning an error rolls the
// whole transaction back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
