// Package mongo wraps the driver's session API behind a transaction
// manager the repositories share.
package mongo

import (
	"context"
	"fmt"

	apperrors "resbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionFunc runs inside a transaction. The context it receives
// carries the session; repositories pass it through unchanged so their
// writes join the transaction. The plain context signature lets non-Mongo
// stores satisfy TransactionManager in tests.
type TransactionFunc func(ctx context.Context) error

// TransactionManager runs a function atomically. The Mongo implementation
// uses multi-document transactions; the in-memory store used in tests
// snapshots and rolls back instead.
type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type transactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &transactionManager{client: client}
}

// ExecuteTransaction commits when fn returns nil and aborts otherwise.
// AppErrors pass through unwrapped so the service layer keeps their codes.
func (m *transactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
