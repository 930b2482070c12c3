// Package txn runs units of work inside MongoDB multi-document transactions.
//
// Transactions need a replica set or sharded cluster. On a standalone server
// Run logs once and executes the unit directly, so callers that need
// all-or-nothing behavior there must make their steps compensable.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes meaning "transactions unavailable here".
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers only allowed on replica set members
	51:  true,
	263: true, // OperationNotSupportedInTransaction
}

var warnOnce sync.Once

// Run executes fn in a transaction on db's client. fn must use the ctx it is
// given so its operations join the transaction.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			noteFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		noteFallback(log, err)
		return fn(ctx)
	}
	return err
}

// Runner adapts Run to an interface so domain code can swap in another
// unit-of-work implementation.
type Runner struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// Run executes fn through the package-level Run.
func (r Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.DB, r.Log, fn)
}

// IsNotSupported reports whether err means the server cannot run
// transactions, as opposed to the unit of work itself failing.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "illegal operation") {
		return true
	}
	if strings.Contains(s, "transaction") &&
		(strings.Contains(s, "replica set") || strings.Contains(s, "session")) {
		return true
	}
	return strings.Contains(s, "session") && strings.Contains(s, "not supported")
}

func noteFallback(log *zap.Logger, err error) {
	if log == nil {
		return
	}
	warnOnce.Do(func() {
		log.Warn("mongo transactions unavailable; running units of work without a transaction",
			zap.Error(err))
	})
}
