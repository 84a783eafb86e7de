package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infolibrary/infolibrary/internal/shared"
)

const roleID int64 = 7

func permissionTitles() map[int64]string {
	return map[int64]string{1: "ReadBook", 2: "CreateBook", 3: "UpdateBook", 4: "DeleteBook"}
}

func TestReconcileConvergesOnDesiredSet(t *testing.T) {
	repo := newMemoryGrants(permissionTitles())
	repo.seed(roleID, 1, 2, 3)

	err := NewReconciler(repo).Reconcile(context.Background(), roleID, Collection(2, 4))

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 4}, repo.held(roleID))
	assert.Equal(t, 2, repo.calls["delete"])
	assert.Equal(t, 1, repo.calls["create"])
}

func TestReconcileIsIdempotent(t *testing.T) {
	repo := newMemoryGrants(permissionTitles())
	repo.seed(roleID, 1)
	reconciler := NewReconciler(repo)
	ctx := context.Background()

	require.NoError(t, reconciler.Reconcile(ctx, roleID, Collection(3, 4)))
	first := repo.held(roleID)
	repo.calls = make(map[string]int)

	require.NoError(t, reconciler.Reconcile(ctx, roleID, Collection(3, 4)))

	assert.Equal(t, first, repo.held(roleID))
	assert.Zero(t, repo.calls["create"])
	assert.Zero(t, repo.calls["delete"])
}

func TestReconcileAbsentClearsAllGrants(t *testing.T) {
	repo := newMemoryGrants(permissionTitles())
	repo.seed(roleID, 1, 2, 3, 4)
	repo.seed(roleID+1, 1)

	require.NoError(t, NewReconciler(repo).Reconcile(context.Background(), roleID, Absent()))

	assert.Empty(t, repo.held(roleID))
	assert.Equal(t, []int64{1}, repo.held(roleID+1))
	assert.Equal(t, 1, repo.calls["deleteAll"])
}

func TestReconcileScalarMatchesSingletonCollection(t *testing.T) {
	ctx := context.Background()
	scalar := newMemoryGrants(permissionTitles())
	scalar.seed(roleID, 1, 3)
	collection := newMemoryGrants(permissionTitles())
	collection.seed(roleID, 1, 3)

	require.NoError(t, NewReconciler(scalar).Reconcile(ctx, roleID, Scalar(2)))
	require.NoError(t, NewReconciler(collection).Reconcile(ctx, roleID, Collection(2)))

	assert.Equal(t, []int64{2}, scalar.held(roleID))
	assert.Equal(t, collection.held(roleID), scalar.held(roleID))
}

func TestReconcileEmptyCollectionRevokesEverything(t *testing.T) {
	repo := newMemoryGrants(permissionTitles())
	repo.seed(roleID, 1, 2)

	require.NoError(t, NewReconciler(repo).Reconcile(context.Background(), roleID, Collection()))

	assert.Empty(t, repo.held(roleID))
}

func TestReconcileRollsBackOnFailure(t *testing.T) {
	repo := newMemoryGrants(permissionTitles())
	repo.seed(roleID, 1, 2)
	boom := errors.New("connection reset")
	repo.failOn = "create"
	repo.failErr = boom

	err := NewReconciler(repo).Reconcile(context.Background(), roleID, Collection(3))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int64{1, 2}, repo.held(roleID))
	assert.Equal(t, 2, repo.calls["delete"], "removal pass ran before the failure")
}

func TestReconcileStopsOnProbeFailure(t *testing.T) {
	repo := newMemoryGrants(permissionTitles())
	repo.failOn = "find"
	repo.failErr = shared.ErrUpstream

	err := NewReconciler(repo).Reconcile(context.Background(), roleID, Collection(1, 2))

	require.ErrorIs(t, err, shared.ErrUpstream)
	assert.Equal(t, 1, repo.calls["find"])
	assert.Zero(t, repo.calls["create"])
}

func TestDesiredFromForm(t *testing.T) {
	d, err := DesiredFromForm(nil)
	require.NoError(t, err)
	assert.True(t, d.IsAbsent())

	d, err = DesiredFromForm([]string{"", "  "})
	require.NoError(t, err)
	assert.True(t, d.IsAbsent())

	d, err = DesiredFromForm([]string{"5"})
	require.NoError(t, err)
	assert.Equal(t, Scalar(5), d)

	d, err = DesiredFromForm([]string{"5", "6", "5"})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, d.IDs())
	assert.False(t, d.IsAbsent())

	_, err = DesiredFromForm([]string{"5", "abc"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = DesiredFromForm([]string{"-1"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDesiredWith(t *testing.T) {
	assert.Equal(t, Scalar(9), Absent().With(9))
	assert.Equal(t, []int64{1, 9}, Scalar(1).With(9).IDs())
	assert.Equal(t, []int64{1, 9}, Collection(1, 9).With(9).IDs())
}
