package graph

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmmorks/chatter/internal/chattercore"
	"github.com/mmmorks/chatter/internal/docstore"
	"github.com/mmmorks/chatter/internal/metrics"
)

// Error codes reported in the "extensions" of a GraphQL error.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeDuplicateID  = "DUPLICATE_ID"
	CodeStoreFailure = "STORE_FAILURE"
)

// Error is a resolver failure with a machine-readable code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Extensions is picked up by graph-gophers and copied into the response.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

// classify maps a core error to its GraphQL error and metrics outcome.
func classify(err error) (*Error, string) {
	switch {
	case errors.Is(err, chattercore.ErrNotFound):
		return &Error{Code: CodeNotFound, Err: err}, metrics.OutcomeNotFound
	case errors.Is(err, docstore.ErrDuplicateID):
		return &Error{Code: CodeDuplicateID, Err: err}, metrics.OutcomeError
	default:
		return &Error{Code: CodeStoreFailure, Err: err}, metrics.OutcomeError
	}
}

// finish records the outcome of one operation and converts err for the
// response. found reports whether a non-error call produced a result.
func (r *Resolver) finish(ctx context.Context, op string, start time.Time, found bool, err error) error {
	outcome := metrics.OutcomeOK
	if err == nil && !found {
		outcome = metrics.OutcomeAbsent
	}

	var gqlErr *Error
	if err != nil {
		gqlErr, outcome = classify(err)
		if gqlErr.Code == CodeStoreFailure {
			r.Logger.Error("store operation failed", zap.String("operation", op), zap.Error(err))
		} else {
			r.Logger.Debug("operation rejected", zap.String("operation", op), zap.String("code", gqlErr.Code), zap.Error(err))
		}
	}

	r.Metrics.ObserveOperation(op, outcome, time.Since(start))

	// A typed nil must not escape as a non-nil error interface.
	if gqlErr == nil {
		return nil
	}
	return gqlErr
}
