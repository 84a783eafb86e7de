package view

import (
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infolibrary/infolibrary/internal/shared"
)

func TestNewEngineParsesEmbeddedPages(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err, "Templates should parse without error")

	for _, name := range []string{
		"pages/home.html",
		"pages/error.html",
		"pages/auth/login.html",
		"pages/books/index.html",
		"pages/admin/dashboard.html",
		"pages/admin/roles/form.html",
		"pages/admin/permissions/form.html",
		"pages/admin/administrators/show.html",
		"pages/admin/profile/password.html",
	} {
		assert.True(t, engine.Has(name), name)
	}
}

func TestRenderUsesPathNamesAndPartials(t *testing.T) {
	fsys := fstest.MapFS{
		"tpl/partials/box.html":   {Data: []byte(`{{define "box"}}[{{.}}]{{end}}`)},
		"tpl/pages/a/index.html":  {Data: []byte(`{{template "box" .Title}} {{with field .Data "title"}}{{.}}{{end}}`)},
		"tpl/pages/b/index.html":  {Data: []byte(`other`)},
		"tpl/pages/b/ignored.txt": {Data: []byte(`{{`)},
	}
	engine, err := newEngine(fsys, "tpl")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, engine.Render(rec, "pages/a/index.html", TemplateData{
		Title: "Books",
		Data:  shared.FieldErrors{"title": "required"},
	}))
	assert.Equal(t, "[Books] required", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, engine.Has("pages/b/index.html"))
}

func TestRenderMatrixPartial(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/admin/roles/show.html", TemplateData{
		Title: "Editor",
		Data: map[string]any{
			"Role": struct {
				ID                 int64
				Title, Description string
				IsOwner            bool
			}{ID: 3, Title: "Editor"},
			"Matrix": nil,
		},
	})
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "<h1>Editor</h1>")
}
