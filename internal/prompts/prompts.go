// Package prompts holds the policy text sent to the completion service.
// Templates are embedded and may be overridden from a directory at runtime.
package prompts

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"

	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

const (
	Answer = "answer"
	Links  = "links"

	ext = ".tmpl"
)

//go:embed templates/*.tmpl
var embedded embed.FS

var names = []string{Answer, Links}

// AnswerData feeds the answer template.
type AnswerData struct {
	Query        string
	UserLocation *types.UserLocation
}

// LinksData feeds the links template.
type LinksData struct {
	Query  string
	Answer string
}

type Store struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	dir       string
	logger    *slog.Logger
}

// NewStore loads the embedded templates, then any overrides found in dir.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	s := &Store{dir: dir, logger: logger.With(slog.String("component", "Prompts"))}
	tmpls, err := s.load()
	if err != nil {
		return nil, err
	}
	s.templates = tmpls
	return s, nil
}

func (s *Store) load() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		src, err := embedded.ReadFile("templates/" + name + ext)
		if err != nil {
			return nil, fmt.Errorf("read embedded template %s: %w", name, err)
		}
		if s.dir != "" {
			override, err := os.ReadFile(filepath.Join(s.dir, name+ext))
			switch {
			case err == nil:
				src = override
			case !errors.Is(err, os.ErrNotExist):
				return nil, fmt.Errorf("read template %s: %w", name, err)
			}
		}
		t, err := template.New(name).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// Reload re-reads the override directory. On error the current templates are kept.
func (s *Store) Reload() error {
	tmpls, err := s.load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.templates = tmpls
	s.mu.Unlock()
	return nil
}

func (s *Store) Render(name string, data any) (string, error) {
	s.mu.RLock()
	t, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q: %w", name, types.ErrInvalidArgument)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Watch reloads templates whenever a file in the override directory changes, until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		return fmt.Errorf("no prompt directory configured: %w", types.ErrInvalidArgument)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, ext) || event.Op == fsnotify.Chmod {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.ErrorContext(ctx, "Prompt reload failed, keeping previous templates", slog.String("file", event.Name), slog.Any("error", err))
					continue
				}
				s.logger.InfoContext(ctx, "Prompt templates reloaded", slog.String("file", event.Name))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.WarnContext(ctx, "Prompt watcher error", slog.Any("error", err))
			}
		}
	}()
	return nil
}

// Renderer renders a named prompt template.
type Renderer interface {
	Render(name string, data any) (string, error)
}

var _ Renderer = (*Store)(nil)
