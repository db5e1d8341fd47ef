// Package render is a thin templating helper: a key-value context store
// rendered through html/template, with sprig's function library and a
// digest_asset helper for cache-busted asset URLs.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// ErrUnknownTemplate is returned by Render for names no loaded template
// matches.
var ErrUnknownTemplate = errors.New("unknown template")

// Renderer loads a directory of templates once at construction and renders
// them against a shared key-value context. Safe for concurrent use.
type Renderer struct {
	mu       sync.RWMutex
	context  map[string]any
	tmpl     *template.Template
	cacheKey int64
}

// New parses every *.html file in dir. Templates are registered under their
// file stem: templates/index.html renders as "index". The cache key used by
// digest_asset is fixed at construction time, so asset URLs are stable
// within a process and change across restarts.
func New(dir string) (*Renderer, error) {
	r := &Renderer{
		context:  make(map[string]any),
		cacheKey: time.Now().Unix(),
	}

	funcs := sprig.HtmlFuncMap()
	funcs["digest_asset"] = r.digestAsset
	r.tmpl = template.New("").Funcs(funcs)

	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("listing templates in %s: %w", dir, err)
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", file, err)
		}
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		if _, err := r.tmpl.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", file, err)
		}
	}

	return r, nil
}

// Insert stores a value in the render context, replacing any previous value
// for the key.
func (r *Renderer) Insert(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.context[key] = value
}

// Render executes the named template against a snapshot of the context.
func (r *Renderer) Render(name string) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	r.mu.RLock()
	data := make(map[string]any, len(r.context))
	for k, v := range r.context {
		data[k] = v
	}
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", name, err)
	}
	return buf.String(), nil
}

// digestAsset rewrites an asset path into a cache-busted URL:
// "app.css" becomes "/assets/app.css?v=<cache key>".
func (r *Renderer) digestAsset(file string) string {
	return fmt.Sprintf("/assets/%s?v=%d", file, r.cacheKey)
}
