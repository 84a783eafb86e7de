package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrixFixture() ([]Entity, []Permission) {
	entities := []Entity{
		{ID: 1, Title: "Book"},
		{ID: 2, Title: "Author"},
		{ID: 3, Title: "Home"},
	}
	all := []Permission{
		{ID: 10, Title: "ReadBook", EntityID: 1},
		{ID: 11, Title: "CreateBook", EntityID: 1},
		{ID: 12, Title: "UpdateBook", EntityID: 1},
		{ID: 13, Title: "DeleteBook", EntityID: 1},
		{ID: 20, Title: "ReadAuthor", EntityID: 2},
		{ID: 23, Title: "DeleteAuthor", EntityID: 2},
		{ID: 24, Title: "ExportAuthor", EntityID: 2},
		{ID: 30, Title: "ReadHome", EntityID: 3},
	}
	return entities, all
}

func TestSynthesizeIsComplete(t *testing.T) {
	entities, all := matrixFixture()

	rows := Synthesize(entities, nil, all)

	require.Len(t, rows, len(entities))
	for i, row := range rows {
		assert.Equal(t, entities[i], row.Entity)
		for j, slot := range row.Slots {
			assert.Equal(t, Actions[j], slot.Action, "slot %d of %s", j, row.Entity.Title)
			if slot.Placeholder {
				assert.Zero(t, slot.Permission.ID)
				assert.Equal(t, slot.Action.String(), slot.Permission.Title)
			}
		}
	}

	author := rows[1]
	assert.Equal(t, int64(20), author.Slots[0].Permission.ID)
	assert.True(t, author.Slots[1].Placeholder)
	assert.True(t, author.Slots[2].Placeholder)
	assert.Equal(t, int64(23), author.Slots[3].Permission.ID)

	home := rows[2]
	assert.Equal(t, "ReadHome", home.Slots[0].Permission.Title)
	for _, slot := range home.Slots[1:] {
		assert.True(t, slot.Placeholder)
	}
}

func TestSynthesizeDropsPermissionWithoutVerb(t *testing.T) {
	entities, all := matrixFixture()

	rows := Synthesize(entities, nil, all)

	for _, row := range rows {
		for _, slot := range row.Slots {
			assert.NotEqual(t, "ExportAuthor", slot.Permission.Title)
		}
	}
}

func TestSynthesizeMarksGranted(t *testing.T) {
	entities, all := matrixFixture()
	granted := PermissionsByID(all, []int64{13, 10})

	rows := Synthesize(entities, granted, all)

	book := rows[0]
	assert.True(t, book.Slots[0].Granted)
	assert.False(t, book.Slots[1].Granted)
	assert.False(t, book.Slots[2].Granted)
	assert.True(t, book.Slots[3].Granted)
	for _, slot := range rows[1].Slots {
		assert.False(t, slot.Granted)
	}
}

func TestSynthesizeLaterPermissionOverwritesSlot(t *testing.T) {
	entities := []Entity{{ID: 1, Title: "Book"}}
	granted := []Permission{{ID: 10, Title: "ReadBook", EntityID: 1}}
	all := []Permission{
		{ID: 10, Title: "ReadBook", EntityID: 1},
		{ID: 14, Title: "ReadBookArchive", EntityID: 1},
	}

	rows := Synthesize(entities, granted, all)

	read := rows[0].Slots[0]
	assert.Equal(t, int64(14), read.Permission.ID)
	assert.False(t, read.Granted)
}

func TestSynthesizePrefersExplicitAction(t *testing.T) {
	entities := []Entity{{ID: 1, Title: "Book"}}
	all := []Permission{{ID: 15, Title: "ReadOnlyBookDelete", EntityID: 1, Action: ActionDelete}}

	rows := Synthesize(entities, nil, all)

	assert.True(t, rows[0].Slots[0].Placeholder)
	assert.Equal(t, int64(15), rows[0].Slots[3].Permission.ID)
	slot, ok := rows[0].Slot(ActionDelete)
	require.True(t, ok)
	assert.Equal(t, int64(15), slot.Permission.ID)
	_, ok = rows[0].Slot(ActionUnknown)
	assert.False(t, ok)
}

func TestSynthesizeIgnoresPermissionsOfUnlistedEntities(t *testing.T) {
	entities := []Entity{{ID: 2, Title: "Author"}}
	all := []Permission{{ID: 10, Title: "ReadBook", EntityID: 1}}

	rows := Synthesize(entities, nil, all)

	require.Len(t, rows, 1)
	for _, slot := range rows[0].Slots {
		assert.True(t, slot.Placeholder)
	}
	assert.Empty(t, Synthesize(nil, nil, all))
}

func TestActionFromTitlePrecedence(t *testing.T) {
	cases := map[string]Action{
		"ReadBook":         ActionRead,
		"CreateBook":       ActionCreate,
		"UpdateBook":       ActionUpdate,
		"DeleteBook":       ActionDelete,
		"DeleteReadReport": ActionRead,
		"UpdateOrCreate":   ActionCreate,
		"readbook":         ActionUnknown,
		"ExportBook":       ActionUnknown,
	}
	for title, want := range cases {
		assert.Equal(t, want, ActionFromTitle(title), title)
	}
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionUpdate, ParseAction(" update "))
	assert.Equal(t, ActionRead, ParseAction("Read"))
	assert.Equal(t, ActionUnknown, ParseAction("Export"))
	assert.False(t, ActionUnknown.Valid())
	assert.Equal(t, "", ActionUnknown.String())
}

func TestComposePermissionTitle(t *testing.T) {
	assert.Equal(t, "ReadBook", ComposePermissionTitle(ActionRead, "book"))
	assert.Equal(t, "DeleteBookCopy", ComposePermissionTitle(ActionDelete, "book copy"))
	assert.Equal(t, "UpdateSuperAdmin", ComposePermissionTitle(ActionUpdate, "SuperAdmin"))
}

func TestPermissionsByIDKeepsRequestedOrder(t *testing.T) {
	_, all := matrixFixture()

	picked := PermissionsByID(all, []int64{30, 99, 10})

	require.Len(t, picked, 2)
	assert.Equal(t, "ReadHome", picked[0].Title)
	assert.Equal(t, "ReadBook", picked[1].Title)
}
