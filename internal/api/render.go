package api

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed views
var viewFS embed.FS

const layoutFile = "views/layout.html"

// Renderer implements echo.Renderer over the embedded views. Each page is
// parsed together with the shared layout and addressed by its path without
// the extension, e.g. "products/index".
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}

	err := fs.WalkDir(viewFS, "views", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == layoutFile || path.Ext(p) != ".html" {
			return nil
		}

		name := strings.TrimSuffix(strings.TrimPrefix(p, "views/"), ".html")
		t, err := template.New(path.Base(layoutFile)).Funcs(templateFuncs).ParseFS(viewFS, layoutFile, p)
		if err != nil {
			return fmt.Errorf("parse view %s: %w", name, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("Jan 2, 2006")
	},
	"optDate": func(t *time.Time) string {
		if t == nil {
			return "open-ended"
		}
		return t.UTC().Format("Jan 2, 2006")
	},
	"selected": func(selected *int64, id int64) bool {
		return selected != nil && *selected == id
	},
	"fieldError": func(errs map[string]string, field string) string {
		return errs[field]
	},
}
