package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	platformmongo "github.com/wms-platform/slotting-service/pkg/mongodb"
)

// TxRunner runs callbacks inside a MongoDB transaction. Repository calls
// made with the callback's context join the transaction.
type TxRunner struct {
	client *platformmongo.Client
}

// NewTxRunner creates a TxRunner
func NewTxRunner(client *platformmongo.Client) *TxRunner {
	return &TxRunner{client: client}
}

// RunInTransaction implements domain.TxRunner
func (t *TxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
