package entities

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/infolibrary/infolibrary/internal/shared"
)

// RepositoryPort defines data access methods for entities.
type RepositoryPort interface {
	List(ctx context.Context, search string) ([]Entity, error)
	ListExcept(ctx context.Context, title string) ([]Entity, error)
	Get(ctx context.Context, id int64) (Entity, error)
	Create(ctx context.Context, e Entity) (Entity, error)
	Update(ctx context.Context, e Entity) (Entity, error)
	Delete(ctx context.Context, id int64) (Entity, error)
}

// Service handles entity business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: shared.NewValidator()}
}

// List returns all entities, oldest first.
func (s *Service) List(ctx context.Context) ([]Entity, error) {
	return s.repo.List(ctx, "")
}

// Search returns entities whose title contains query, case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]Entity, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

// ListExcept returns all entities but the one titled title.
func (s *Service) ListExcept(ctx context.Context, title string) ([]Entity, error) {
	return s.repo.ListExcept(ctx, title)
}

// Get returns one entity or shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Entity, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new entity.
func (s *Service) Create(ctx context.Context, in Input) (Entity, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Entity{}, err
	}
	return s.repo.Create(ctx, Entity{Title: in.Title, Description: in.Description})
}

// Update applies the non-blank fields of patch to the stored entity.
func (s *Service) Update(ctx context.Context, id int64, patch Input) (Entity, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	patch = normalize(patch)
	merged := Input{Title: current.Title, Description: current.Description}
	if patch.Title != "" {
		merged.Title = patch.Title
	}
	if patch.Description != "" {
		merged.Description = patch.Description
	}
	if err := shared.ValidateStruct(s.validate, merged); err != nil {
		return Entity{}, err
	}
	current.Title = merged.Title
	current.Description = merged.Description
	return s.repo.Update(ctx, current)
}

// Delete removes an entity with its permissions.
func (s *Service) Delete(ctx context.Context, id int64) (Entity, error) {
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
