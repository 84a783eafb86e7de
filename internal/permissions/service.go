package permissions

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

// RepositoryPort defines data access methods for permissions.
type RepositoryPort interface {
	List(ctx context.Context, search string) ([]Permission, error)
	Get(ctx context.Context, id int64) (Detail, error)
	Create(ctx context.Context, p Permission) (Permission, error)
	Update(ctx context.Context, p Permission) (Permission, error)
	Delete(ctx context.Context, id int64) (Permission, error)
}

// EntityLookup resolves the entity a permission belongs to.
type EntityLookup interface {
	Get(ctx context.Context, id int64) (rbac.Entity, error)
}

// Service handles permission business logic.
type Service struct {
	repo     RepositoryPort
	entities EntityLookup
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, entities EntityLookup) *Service {
	return &Service{repo: repo, entities: entities, validate: shared.NewValidator()}
}

// List returns every permission, oldest first.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	return s.repo.List(ctx, "")
}

// Search returns permissions whose title contains query, case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]Permission, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

// Get returns a permission joined with its entity.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a permission. A blank title is composed from
// the action and entity title. Without an explicit action the verb is derived
// from the title; a title without a verb stores none.
func (s *Service) Create(ctx context.Context, in Input) (Permission, error) {
	in = normalize(in)
	if in.Title == "" && in.EntityID > 0 {
		if action := rbac.ParseAction(in.Action); action.Valid() {
			entity, err := s.entities.Get(ctx, in.EntityID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return Permission{}, err
			}
			if err == nil {
				in.Title = rbac.ComposePermissionTitle(action, entity.Title)
			}
		}
	}
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Permission{}, err
	}
	action := rbac.ParseAction(in.Action)
	if !action.Valid() {
		action = rbac.ActionFromTitle(in.Title)
	}
	return s.repo.Create(ctx, Permission{
		Title:       in.Title,
		Description: in.Description,
		EntityID:    in.EntityID,
		Action:      action,
	})
}

// Update applies the non-blank fields of patch to the stored permission.
// Renaming re-derives the action from the new title when patch has none.
func (s *Service) Update(ctx context.Context, id int64, patch Input) (Permission, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	patch = normalize(patch)
	merged := Input{
		Title:       current.Title,
		Description: current.Description,
		EntityID:    current.EntityID,
		Action:      current.Action.String(),
	}
	if patch.Title != "" {
		merged.Title = patch.Title
		// A renamed permission follows the verb in its new title unless an
		// action is given; verbless titles keep the stored action.
		if patch.Title != current.Title {
			if derived := rbac.ActionFromTitle(patch.Title); derived.Valid() {
				merged.Action = derived.String()
			}
		}
	}
	if patch.Description != "" {
		merged.Description = patch.Description
	}
	if patch.EntityID > 0 {
		merged.EntityID = patch.EntityID
	}
	if patch.Action != "" {
		merged.Action = patch.Action
	}
	if err := shared.ValidateStruct(s.validate, merged); err != nil {
		return Permission{}, err
	}
	action := rbac.ParseAction(merged.Action)
	if !action.Valid() {
		action = rbac.ActionFromTitle(merged.Title)
	}
	return s.repo.Update(ctx, Permission{
		ID:          id,
		Title:       merged.Title,
		Description: merged.Description,
		EntityID:    merged.EntityID,
		Action:      action,
	})
}

// Delete removes a permission and its role grants.
func (s *Service) Delete(ctx context.Context, id int64) (Permission, error) {
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if a := rbac.ParseAction(in.Action); a.Valid() {
		in.Action = a.String()
	} else {
		in.Action = strings.TrimSpace(in.Action)
	}
	return in
}
