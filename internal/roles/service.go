package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context, search string) ([]Role, error)
	ListExcept(ctx context.Context, title string) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) (Role, error)
	Delete(ctx context.Context, id int64) (Role, error)
}

// GrantReader lists the permissions granted to a role.
type GrantReader interface {
	ListGrants(ctx context.Context, ownerID int64) ([]rbac.Grant, error)
}

// Reconciling converges the permissions of a role onto a submitted set.
type Reconciling interface {
	Reconcile(ctx context.Context, ownerID int64, desired rbac.Desired) error
}

// Tx is the transaction-scoped view handed to a UnitOfWork callback.
type Tx struct {
	Repo       RepositoryPort
	Reconciler Reconciling
}

// UnitOfWork runs a role write and the reconcile of its permissions as one
// transaction; an error from fn rolls both back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Service handles role business logic.
type Service struct {
	repo     RepositoryPort
	catalog  rbac.Catalog
	grants   GrantReader
	work     UnitOfWork
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog rbac.Catalog, grants GrantReader, work UnitOfWork) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		grants:   grants,
		work:     work,
		validate: shared.NewValidator(),
	}
}

// List returns every role, oldest first.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx, "")
}

// Search returns roles whose title contains query, case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]Role, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

// Assignable returns the roles an administrator form may offer: all but Owner.
func (s *Service) Assignable(ctx context.Context) ([]Role, error) {
	return s.repo.ListExcept(ctx, rbac.OwnerRoleTitle)
}

// Get returns a role.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Detail returns a role with its granted permissions and matrix.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	grants, err := s.grants.ListGrants(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	detail, err := s.DetailFor(ctx, rbac.GrantedIDs(grants))
	if err != nil {
		return Detail{}, err
	}
	detail.Role = role
	return detail, nil
}

// DetailFor builds the matrix as if permissionIDs were granted. Forms use it
// to redisplay a rejected submission.
func (s *Service) DetailFor(ctx context.Context, permissionIDs []int64) (Detail, error) {
	matrix, granted, err := rbac.LoadMatrix(ctx, s.catalog, permissionIDs)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Granted: granted, Matrix: matrix}, nil
}

// Create stores a role and grants it the desired permissions in one
// transaction.
func (s *Service) Create(ctx context.Context, in Input, permissions rbac.Desired) (Role, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Role{}, err
	}
	var role Role
	err := s.work.Do(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if role, err = tx.Repo.Create(ctx, Role{Title: in.Title, Description: in.Description}); err != nil {
			return err
		}
		return tx.Reconciler.Reconcile(ctx, role.ID, permissions)
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// Update applies the non-blank fields of patch and converges the role's
// permissions onto the desired set. The Owner role keeps its title.
func (s *Service) Update(ctx context.Context, id int64, patch Input, permissions rbac.Desired) (Role, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	patch = normalize(patch)
	merged := Input{Title: current.Title, Description: current.Description}
	if patch.Title != "" {
		merged.Title = patch.Title
	}
	if patch.Description != "" {
		merged.Description = patch.Description
	}
	if current.IsOwner() && merged.Title != current.Title {
		return Role{}, shared.FieldErrors{"title": "The Owner role cannot be renamed."}
	}
	if err := shared.ValidateStruct(s.validate, merged); err != nil {
		return Role{}, err
	}
	var role Role
	err = s.work.Do(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if role, err = tx.Repo.Update(ctx, Role{ID: id, Title: merged.Title, Description: merged.Description}); err != nil {
			return err
		}
		return tx.Reconciler.Reconcile(ctx, id, permissions)
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// Delete removes a role. The Owner role cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) (Role, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if current.IsOwner() {
		return Role{}, fmt.Errorf("%w: the Owner role is reserved", shared.ErrConstraintViolation)
	}
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
