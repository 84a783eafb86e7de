package administrators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

// RepositoryPort defines data access methods for administrators.
type RepositoryPort interface {
	List(ctx context.Context, search string) ([]Administrator, error)
	Get(ctx context.Context, id int64) (Administrator, error)
	FindByEmail(ctx context.Context, email string) (Administrator, error)
	Create(ctx context.Context, a Administrator) (Administrator, error)
	Update(ctx context.Context, a Administrator) (Administrator, error)
	Delete(ctx context.Context, id int64) (Administrator, error)
}

// GrantReader lists the grants of one owner in a join relation.
type GrantReader interface {
	ListGrants(ctx context.Context, ownerID int64) ([]rbac.Grant, error)
}

// Reconciling converges the roles of an administrator onto a submitted set.
type Reconciling interface {
	Reconcile(ctx context.Context, ownerID int64, desired rbac.Desired) error
}

// Tx is the transaction-scoped view handed to a UnitOfWork callback.
type Tx struct {
	Repo       RepositoryPort
	Roles      GrantReader
	Reconciler Reconciling
}

// UnitOfWork runs an administrator write and the reconcile of their roles as
// one transaction; an error from fn rolls both back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo               RepositoryPort
	AdministratorRoles GrantReader
	RolePermissions    GrantReader
	Work               UnitOfWork
	Catalog            rbac.Catalog
}

// Service handles administrator business logic.
type Service struct {
	repo       RepositoryPort
	adminRoles GrantReader
	rolePerms  GrantReader
	work       UnitOfWork
	catalog    rbac.Catalog
	validate   *validator.Validate
	cost       int
}

// NewService builds Service instance.
func NewService(deps Deps) *Service {
	return &Service{
		repo:       deps.Repo,
		adminRoles: deps.AdministratorRoles,
		rolePerms:  deps.RolePermissions,
		work:       deps.Work,
		catalog:    deps.Catalog,
		validate:   shared.NewValidator(),
		cost:       bcrypt.DefaultCost,
	}
}

// List returns every administrator, oldest first.
func (s *Service) List(ctx context.Context) ([]Administrator, error) {
	return s.repo.List(ctx, "")
}

// Search returns administrators whose user name contains query.
func (s *Service) Search(ctx context.Context, query string) ([]Administrator, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

// Get returns an administrator.
func (s *Service) Get(ctx context.Context, id int64) (Administrator, error) {
	return s.repo.Get(ctx, id)
}

// Roles returns the role grants of an administrator, oldest first.
func (s *Service) Roles(ctx context.Context, id int64) ([]rbac.Grant, error) {
	return s.adminRoles.ListGrants(ctx, id)
}

// Create stores an administrator with a hashed password and grants the
// desired roles in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput, roles rbac.Desired) (Administrator, error) {
	in = normalizeCreate(in)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Administrator{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return Administrator{}, err
	}
	var admin Administrator
	err = s.work.Do(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		admin, err = tx.Repo.Create(ctx, Administrator{
			Email:        in.Email,
			UserName:     in.UserName,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		return tx.Reconciler.Reconcile(ctx, admin.ID, roles)
	})
	if err != nil {
		return Administrator{}, err
	}
	return admin, nil
}

// Update patches an administrator and converges their roles. An Owner grant
// the administrator already holds is never revoked by a form, since forms do
// not offer the Owner role.
func (s *Service) Update(ctx context.Context, id int64, patch UpdateInput, roles rbac.Desired) (Administrator, error) {
	var admin Administrator
	err := s.work.Do(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if admin, err = s.patch(ctx, tx.Repo, id, patch); err != nil {
			return err
		}
		current, err := tx.Roles.ListGrants(ctx, id)
		if err != nil {
			return err
		}
		desired := roles
		for _, grant := range current {
			if rbac.IsOwnerRole(grant.Title) {
				desired = desired.With(grant.GrantedID)
			}
		}
		return tx.Reconciler.Reconcile(ctx, id, desired)
	})
	if err != nil {
		return Administrator{}, err
	}
	return admin, nil
}

// UpdateProfile patches the administrator's own fields. Roles and password are
// left untouched.
func (s *Service) UpdateProfile(ctx context.Context, id int64, patch UpdateInput) (Administrator, error) {
	patch.Password = ""
	patch.PasswordConfirmation = ""
	return s.patch(ctx, s.repo, id, patch)
}

// ChangePassword replaces the password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, id int64, in PasswordChange) error {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return err
	}
	admin, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.OldPassword)) != nil {
		return shared.FieldErrors{"oldPassword": "The current password is incorrect."}
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return err
	}
	admin.PasswordHash = hash
	_, err = s.repo.Update(ctx, admin)
	return err
}

// Delete removes an administrator and their role grants.
func (s *Service) Delete(ctx context.Context, id int64) (Administrator, error) {
	return s.repo.Delete(ctx, id)
}

// Authenticate checks email and password. Every failure is reported as
// shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Administrator, error) {
	admin, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Administrator{}, shared.ErrInvalidCredentials
		}
		return Administrator{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return Administrator{}, shared.ErrInvalidCredentials
	}
	return admin, nil
}

// FindByEmail returns the administrator registered under email.
func (s *Service) FindByEmail(ctx context.Context, email string) (Administrator, error) {
	return s.repo.FindByEmail(ctx, strings.TrimSpace(email))
}

// Profile returns an administrator with their roles and the matrix of every
// permission those roles grant. Owners see every permission granted.
func (s *Service) Profile(ctx context.Context, id int64) (Detail, error) {
	admin, err := s.repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	roles, err := s.adminRoles.ListGrants(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Administrator: admin, Roles: roles}
	for _, role := range roles {
		if rbac.IsOwnerRole(role.Title) {
			detail.IsOwner = true
		}
	}

	var granted []int64
	if detail.IsOwner {
		all, err := s.catalog.Permissions(ctx)
		if err != nil {
			return Detail{}, err
		}
		for _, p := range all {
			granted = append(granted, p.ID)
		}
	} else {
		granted, err = s.effectivePermissions(ctx, rbac.GrantedIDs(roles))
		if err != nil {
			return Detail{}, err
		}
	}
	detail.Matrix, _, err = rbac.LoadMatrix(ctx, s.catalog, granted)
	if err != nil {
		return Detail{}, err
	}
	return detail, nil
}

// effectivePermissions unions the permission grants of roleIDs, in first-seen order.
func (s *Service) effectivePermissions(ctx context.Context, roleIDs []int64) ([]int64, error) {
	perRole := make([][]rbac.Grant, len(roleIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, roleID := range roleIDs {
		i, roleID := i, roleID
		g.Go(func() error {
			grants, err := s.rolePerms.ListGrants(gctx, roleID)
			if err != nil {
				return fmt.Errorf("administrators: permissions of role %d: %w", roleID, err)
			}
			perRole[i] = grants
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{})
	var ids []int64
	for _, grants := range perRole {
		for _, grant := range grants {
			if _, ok := seen[grant.GrantedID]; ok {
				continue
			}
			seen[grant.GrantedID] = struct{}{}
			ids = append(ids, grant.GrantedID)
		}
	}
	return ids, nil
}

func (s *Service) patch(ctx context.Context, repo RepositoryPort, id int64, patch UpdateInput) (Administrator, error) {
	patch = normalizeUpdate(patch)
	if err := shared.ValidateStruct(s.validate, patch); err != nil {
		return Administrator{}, err
	}
	admin, err := repo.Get(ctx, id)
	if err != nil {
		return Administrator{}, err
	}
	if patch.Email != "" {
		admin.Email = patch.Email
	}
	if patch.UserName != "" {
		admin.UserName = patch.UserName
	}
	if patch.FirstName != "" {
		admin.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		admin.LastName = patch.LastName
	}
	if patch.Password != "" {
		hash, err := s.hash(patch.Password)
		if err != nil {
			return Administrator{}, err
		}
		admin.PasswordHash = hash
	}
	return repo.Update(ctx, admin)
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("administrators: hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeCreate(in CreateInput) CreateInput {
	in.Email = strings.TrimSpace(in.Email)
	in.UserName = strings.TrimSpace(in.UserName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in
}

func normalizeUpdate(in UpdateInput) UpdateInput {
	in.Email = strings.TrimSpace(in.Email)
	in.UserName = strings.TrimSpace(in.UserName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in
}
