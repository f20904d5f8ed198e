// Package manager holds the validating façades over the persistence port, one
// per entity kind. Every operation checks its arguments, delegates to the
// store, and wraps whatever the store returns in a *domain.ManagerError after
// logging it. Mutations run in their own transaction.
package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/metrics"
	"github.com/aussiebroadwan/greenadmin/internal/admin/reconcile"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// Operation names used in errors, logs and metrics.
const (
	opAny    = "any"
	opCount  = "count"
	opList   = "list"
	opFind   = "find"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
	opClaims = "set_claims"
	opRoles  = "set_roles"
	opPurge  = "purge_expired_secrets"
	opSecret = "generate_secret"
)

// call runs fn as operation op on kind, recording metrics and wrapping any
// failure. Argument errors are returned before fn and never wrapped.
func call[T any](ctx context.Context, kind domain.Kind, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.ObserveOperation(kind.String(), op, start, err)
	if err == nil {
		return v, nil
	}

	var zero T
	var me *domain.ManagerError
	if errors.As(err, &me) {
		return zero, err
	}

	slogx.FromContext(ctx).Error("manager operation failed", "kind", kind, "op", op, "error", err)
	return zero, &domain.ManagerError{Kind: kind, Op: op, Err: err}
}

func exec(ctx context.Context, kind domain.Kind, op string, fn func() error) error {
	_, err := call(ctx, kind, op, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// notFound converts a store miss into a *domain.NotFoundError for key.
func notFound(err error, kind domain.Kind, key string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Kind: kind, Key: key}
	}
	return err
}

// find runs a lookup, reporting a store miss as ok=false rather than an error.
func find[T any](v T, err error) (T, bool, error) {
	if errors.Is(err, store.ErrNotFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// validateClaims rejects a claim set naming the same type and value twice.
func validateClaims(claims []domain.Claim) error {
	if dups := reconcile.Duplicates(claims, reconcile.Claims); len(dups) > 0 {
		return &domain.ArgumentError{Param: "claims", Reason: fmt.Sprintf("duplicate claim %s=%q", dups[0].Type, dups[0].Value)}
	}
	return nil
}

func requireActor(actor string) error {
	return domain.RequireArg("actor", actor)
}

// audit logs a successful mutation with the actor who performed it.
func audit(ctx context.Context, kind domain.Kind, op, key, actor string) {
	slogx.FromContext(ctx).Info("entity changed", "kind", kind, "op", op, "key", key, "actor", actor)
}

func newStamp() string { return uuid.NewString() }
