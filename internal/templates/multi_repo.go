package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/danieljhkim/atelier/internal/event"
)

// MultiTemplateRepo searches several repos in order. Reads return the
// first match; writes go to the primary repo.
type MultiTemplateRepo struct {
	primary TemplateRepo
	others  []TemplateRepo
}

// NewMultiTemplateRepo creates a MultiTemplateRepo. primary receives writes
// and shadows others on name collision.
func NewMultiTemplateRepo(primary TemplateRepo, others ...TemplateRepo) *MultiTemplateRepo {
	return &MultiTemplateRepo{primary: primary, others: others}
}

func (m *MultiTemplateRepo) all() []TemplateRepo {
	return append([]TemplateRepo{m.primary}, m.others...)
}

// Dirs returns the union of every repo's directories.
func (m *MultiTemplateRepo) Dirs() ([]string, error) {
	seen := make(map[string]bool)
	result := []string{}
	for _, repo := range m.all() {
		dirs, err := repo.Dirs()
		if err != nil {
			return nil, err
		}
		for _, d := range dirs {
			if !seen[d] {
				seen[d] = true
				result = append(result, d)
			}
		}
	}
	sort.Strings(result)
	return result, nil
}

// List returns the union of dir across repos; earlier repos shadow later.
func (m *MultiTemplateRepo) List(dir string) ([]Summary, error) {
	seen := make(map[string]bool)
	result := []Summary{}
	for _, repo := range m.all() {
		list, err := repo.List(dir)
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			if !seen[s.Name] {
				seen[s.Name] = true
				result = append(result, s)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// TemplateEvents returns the template from the first repo that has it.
func (m *MultiTemplateRepo) TemplateEvents(ctx context.Context, dir, name string) ([]event.Event, error) {
	for _, repo := range m.all() {
		events, err := repo.TemplateEvents(ctx, dir, name)
		if err == nil {
			return events, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, dir, name)
}

// Save writes to the primary repo.
func (m *MultiTemplateRepo) Save(dir, name string, events []event.Event) error {
	return m.primary.Save(dir, name, events)
}

// Delete removes from the primary repo.
func (m *MultiTemplateRepo) Delete(dir, name string) error {
	return m.primary.Delete(dir, name)
}
