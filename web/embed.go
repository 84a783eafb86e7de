package web

import "embed"

// Templates embeds HTML templates. Each file is addressed by its path below
// templates/, for example "pages/books/index.html".
//
//go:embed templates
var Templates embed.FS

// Static embeds static assets.
//
//go:embed static
var Static embed.FS
