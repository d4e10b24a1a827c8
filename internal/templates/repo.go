// Package templates manages recorded template event sequences.
//
// A template is a named list of CREATE and LINK events captured from an
// existing subtree. Templates are grouped in directories and persisted as
// <root>/<dir>/<name>.json, each file holding a JSON array of events.
//
// Key components:
//   - TemplateRepo: Interface for listing, loading and saving templates
//   - FileTemplateRepo: One template root on disk
//   - MultiTemplateRepo: Several roots searched in order
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/fsops"
)

// ErrNotFound indicates a template that does not exist.
var ErrNotFound = errors.New("template not found")

// ErrReadOnly indicates a write to a repo that does not accept writes.
var ErrReadOnly = errors.New("template repo is read-only")

const templateExt = ".json"

// TemplateRepo provides an interface for managing templates.
type TemplateRepo interface {
	// Dirs returns every template directory, sorted.
	Dirs() ([]string, error)

	// List returns the templates of dir, sorted by name.
	List(dir string) ([]Summary, error)

	// TemplateEvents loads the events of one template.
	TemplateEvents(ctx context.Context, dir, name string) ([]event.Event, error)

	// Save writes a template, replacing any existing one.
	Save(dir, name string, events []event.Event) error

	// Delete removes a template.
	Delete(dir, name string) error
}

// FileTemplateRepo implements TemplateRepo using files on disk.
type FileTemplateRepo struct {
	fs       fsops.FS
	root     string
	readOnly bool
}

// NewFileTemplateRepo creates a new FileTemplateRepo.
func NewFileTemplateRepo(fs fsops.FS, root string) *FileTemplateRepo {
	return &FileTemplateRepo{fs: fs, root: root}
}

// NewReadOnlyTemplateRepo creates a FileTemplateRepo that rejects writes.
func NewReadOnlyTemplateRepo(fs fsops.FS, root string) *FileTemplateRepo {
	return &FileTemplateRepo{fs: fs, root: root, readOnly: true}
}

func (r *FileTemplateRepo) path(dir, name string) (string, error) {
	if err := r.fs.ValidateIdentifier(dir); err != nil {
		return "", fmt.Errorf("invalid template dir: %w", err)
	}
	if err := r.fs.ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid template name: %w", err)
	}
	return filepath.Join(r.root, dir, name+templateExt), nil
}

// Dirs returns every template directory.
func (r *FileTemplateRepo) Dirs() ([]string, error) {
	entries, err := r.fs.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	dirs := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// List returns the templates of dir.
func (r *FileTemplateRepo) List(dir string) ([]Summary, error) {
	if err := r.fs.ValidateIdentifier(dir); err != nil {
		return nil, fmt.Errorf("invalid template dir: %w", err)
	}
	entries, err := r.fs.ReadDir(filepath.Join(r.root, dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("failed to read template dir %s: %w", dir, err)
	}

	out := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), templateExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), templateExt)
		events, err := r.load(filepath.Join(r.root, dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("template %s/%s: %w", dir, name, err)
		}
		out = append(out, Summarize(dir, name, events))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TemplateEvents loads the events of one template.
func (r *FileTemplateRepo) TemplateEvents(ctx context.Context, dir, name string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := r.path(dir, name)
	if err != nil {
		return nil, err
	}
	return r.load(p)
}

func (r *FileTemplateRepo) load(p string) ([]event.Event, error) {
	data, err := r.fs.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	var list event.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}
	return list, nil
}

// Save writes a template.
func (r *FileTemplateRepo) Save(dir, name string, events []event.Event) error {
	if r.readOnly {
		return ErrReadOnly
	}
	p, err := r.path(dir, name)
	if err != nil {
		return err
	}
	if events == nil {
		events = []event.Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	if err := r.fs.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create template dir: %w", err)
	}
	if err := r.fs.AtomicWrite(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// Delete removes a template.
func (r *FileTemplateRepo) Delete(dir, name string) error {
	if r.readOnly {
		return ErrReadOnly
	}
	p, err := r.path(dir, name)
	if err != nil {
		return err
	}
	ok, err := r.fs.IsFile(p)
	if err != nil {
		return fmt.Errorf("failed to check template: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, dir, name)
	}
	return r.fs.RemoveAll(p)
}
