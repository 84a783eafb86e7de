package entities

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infolibrary/infolibrary/internal/shared"
)

type memoryRepo struct {
	rows   []Entity
	nextID int64
}

func (m *memoryRepo) List(ctx context.Context, search string) ([]Entity, error) {
	var out []Entity
	for _, e := range m.rows {
		if search == "" || strings.Contains(strings.ToLower(e.Title), strings.ToLower(search)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListExcept(ctx context.Context, title string) ([]Entity, error) {
	var out []Entity
	for _, e := range m.rows {
		if e.Title != title {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Entity, error) {
	for _, e := range m.rows {
		if e.ID == id {
			return e, nil
		}
	}
	return Entity{}, shared.ErrNotFound
}

func (m *memoryRepo) Create(ctx context.Context, e Entity) (Entity, error) {
	for _, existing := range m.rows {
		if existing.Title == e.Title {
			return Entity{}, shared.ErrConstraintViolation
		}
	}
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	m.rows = append(m.rows, e)
	return e, nil
}

func (m *memoryRepo) Update(ctx context.Context, e Entity) (Entity, error) {
	for i := range m.rows {
		if m.rows[i].ID == e.ID {
			m.rows[i] = e
			return e, nil
		}
	}
	return Entity{}, shared.ErrNotFound
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) (Entity, error) {
	for i, e := range m.rows {
		if e.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return e, nil
		}
	}
	return Entity{}, shared.ErrNotFound
}

func TestCreateValidatesAndTrims(t *testing.T) {
	svc := NewService(&memoryRepo{})
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Title: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(ctx, Input{Title: "  Book ", Description: " Printed works "})
	require.NoError(t, err)
	assert.Equal(t, "Book", created.Title)
	assert.Equal(t, "Printed works", created.Description)

	_, err = svc.Create(ctx, Input{Title: "Book"})
	assert.ErrorIs(t, err, shared.ErrConstraintViolation)
}

func TestUpdateKeepsBlankFields(t *testing.T) {
	svc := NewService(&memoryRepo{})
	ctx := context.Background()
	created, err := svc.Create(ctx, Input{Title: "Book", Description: "Printed works"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Input{Description: "Books and manuscripts"})
	require.NoError(t, err)
	assert.Equal(t, "Book", updated.Title)
	assert.Equal(t, "Books and manuscripts", updated.Description)

	_, err = svc.Update(ctx, 404, Input{Title: "Ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSearchAndListExcept(t *testing.T) {
	svc := NewService(&memoryRepo{})
	ctx := context.Background()
	for _, title := range []string{"Book", "Bookshelf", "Author"} {
		_, err := svc.Create(ctx, Input{Title: title})
		require.NoError(t, err)
	}

	found, err := svc.Search(ctx, " book ")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	others, err := svc.ListExcept(ctx, "Book")
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.Equal(t, "Bookshelf", others[0].Title)

	_, err = svc.Delete(ctx, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
