package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/infolibrary/infolibrary/internal/shared"
)

// Reconciler converges the grants of one owner onto a desired set.
type Reconciler struct {
	repo GrantRepository
}

// NewReconciler constructs a Reconciler for one relation.
func NewReconciler(repo GrantRepository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Reconcile makes the grants of ownerID equal to desired. The whole run is one
// transaction; the first failing store call aborts it and nothing is applied.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID int64, desired Desired) error {
	return r.repo.WithTx(ctx, func(ctx context.Context, store GrantStore) error {
		return reconcile(ctx, store, ownerID, desired)
	})
}

func reconcile(ctx context.Context, store GrantStore, ownerID int64, desired Desired) error {
	if desired.IsAbsent() {
		if _, err := store.DeleteAllGrants(ctx, ownerID); err != nil {
			return fmt.Errorf("rbac: clear grants of %d: %w", ownerID, err)
		}
		return nil
	}

	current, err := store.ListGrants(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("rbac: list grants of %d: %w", ownerID, err)
	}
	for _, grant := range current {
		if desired.Contains(grant.GrantedID) {
			continue
		}
		if _, err := store.DeleteGrant(ctx, ownerID, grant.GrantedID); ignoreNotFound(err) != nil {
			return fmt.Errorf("rbac: revoke %d from %d: %w", grant.GrantedID, ownerID, err)
		}
	}

	for _, id := range desired.IDs() {
		_, err := store.FindGrant(ctx, ownerID, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("rbac: check grant %d of %d: %w", id, ownerID, err)
		}
		if _, err := store.CreateGrant(ctx, ownerID, id); err != nil {
			return fmt.Errorf("rbac: grant %d to %d: %w", id, ownerID, err)
		}
	}
	return nil
}
