package repositories

import (
	"context"
	"sync"
)

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx executes fn within a transaction. All writes made through ctx
	// commit together or not at all. A call made with a context that already
	// carries a transaction joins it.
	ExecTx(ctx context.Context, fn TxFn) error
}

type commitHooksKey struct{}

// CommitHooks collects work that must only happen once the outermost
// transaction has committed, such as counting created records.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks attaches a fresh hook list to ctx. Transaction managers call
// it when they begin an outermost transaction and call Run after commit.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	hooks := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

// Run calls the registered hooks in registration order
func (h *CommitHooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnCommit registers fn to run after the transaction carried by ctx commits.
// A rolled back transaction drops fn. Without a transaction fn runs immediately.
func OnCommit(ctx context.Context, fn func()) {
	hooks, ok := ctx.Value(commitHooksKey{}).(*CommitHooks)
	if !ok {
		fn()
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}
