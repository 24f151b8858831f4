// Package web renders the site's HTML pages from embedded templates.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/models"
)

//go:embed templates static
var files embed.FS

// Page is the data every template receives. Handlers fill the fields the
// page needs and leave the rest zero.
type Page struct {
	Title   string
	Path    string
	Profile *models.PublicProfile // nil when signed out
	Errors  map[string]string
	Form    map[string]string

	Feed          []models.FeedPost
	Posts         []models.Post
	Conversations []models.Conversation
	Active        *models.ConversationDetail
	Search        string
}

func (p Page) SignedIn() bool { return p.Profile != nil }

// Value returns a submitted form value so a rejected form keeps its input.
func (p Page) Value(field string) string { return p.Form[field] }

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"avatar": func(picture string) string {
		if picture == "" {
			return models.DefaultAvatar
		}
		return picture
	},
	"paragraphs": func(s string) []string {
		return strings.Split(s, "\n\n")
	},
	"mine": func(m models.Message) bool {
		return m.SenderID == models.CurrentUserID
	},
	"clock": func(m models.Message) string {
		return m.Timestamp.Format("3:04 PM")
	},
}

// NewRenderer parses the layout together with each page template.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return r, nil
}

// Render writes the named page. Output is buffered so a template error
// never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Page) {
	t, ok := r.pages[name]
	if !ok {
		log.Error().Str("page", name).Msg("Unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Static serves the embedded stylesheet and scripts.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
