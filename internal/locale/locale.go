package locale

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingLocale is returned when a locale is unknown or does not define
// every phrase slot.
var ErrMissingLocale = errors.New("missing locale")

// Default is the locale used when none is configured.
const Default = "en-US"

// Slot names one phrase of a locale table.
type Slot string

const (
	SlotLeadIn             Slot = "lead_in"
	SlotAboutToStart       Slot = "about_to_start"
	SlotYellowCard         Slot = "yellow_card"
	SlotRedCard            Slot = "red_card"
	SlotOwnGoal            Slot = "own_goal"
	SlotPenalty            Slot = "penalty"
	SlotGoal               Slot = "goal"
	SlotMissedPenalty      Slot = "missed_penalty"
	SlotHasStarted         Slot = "has_started"
	SlotHalfTime           Slot = "half_time"
	SlotFullTime           Slot = "full_time"
	SlotHasResumed         Slot = "has_resumed"
	SlotEndFirstExtraTime  Slot = "end_first_extra_time"
	SlotEndSecondExtraTime Slot = "end_second_extra_time"
	SlotEndPenaltyShootout Slot = "end_penalty_shootout"
)

// Slots lists every phrase a table must define.
var Slots = []Slot{
	SlotLeadIn,
	SlotAboutToStart,
	SlotYellowCard,
	SlotRedCard,
	SlotOwnGoal,
	SlotPenalty,
	SlotGoal,
	SlotMissedPenalty,
	SlotHasStarted,
	SlotHalfTime,
	SlotFullTime,
	SlotHasResumed,
	SlotEndFirstExtraTime,
	SlotEndSecondExtraTime,
	SlotEndPenaltyShootout,
}

//go:embed locales/*.yaml
var builtin embed.FS

// Table is the phrase table of one locale.
type Table struct {
	Name    string          `yaml:"locale"`
	Phrases map[Slot]string `yaml:"phrases"`
}

// Phrase returns the phrase for slot. Tables returned by a Registry are
// complete, so the result is never empty for a known slot.
func (t *Table) Phrase(slot Slot) string {
	return t.Phrases[slot]
}

// Validate reports every slot the table leaves undefined.
func (t *Table) Validate() error {
	var missing []string
	for _, slot := range Slots {
		if strings.TrimSpace(t.Phrases[slot]) == "" {
			missing = append(missing, string(slot))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s does not define %s", ErrMissingLocale, t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Registry holds the known locale tables by name.
type Registry struct {
	tables map[string]*Table
}

// Builtin returns a registry with the embedded tables.
func Builtin() (*Registry, error) {
	r := &Registry{tables: make(map[string]*Table)}
	if err := r.loadFS(builtin, "locales"); err != nil {
		return nil, err
	}
	return r, nil
}

// Load returns the embedded tables plus any *.yaml files in dir. A file in
// dir replaces a built-in table with the same locale name. An empty dir
// loads only the built-in tables.
func Load(dir string) (*Registry, error) {
	r, err := Builtin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return r, nil
	}
	if err := r.loadFS(os.DirFS(dir), "."); err != nil {
		return nil, fmt.Errorf("failed to load locales from %s: %w", dir, err)
	}
	return r, nil
}

func (r *Registry) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, entry.Name())))
		if err != nil {
			return err
		}

		table, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if table.Name == "" {
			table.Name = strings.TrimSuffix(entry.Name(), ext)
		}
		r.tables[table.Name] = table
	}
	return nil
}

// Parse decodes a YAML locale table. Completeness is checked by Validate.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse locale: %w", err)
	}
	if t.Phrases == nil {
		t.Phrases = make(map[Slot]string)
	}
	return &t, nil
}

// Get returns the named table. It fails with ErrMissingLocale when the
// locale is unknown or incomplete.
func (r *Registry) Get(name string) (*Table, error) {
	t, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not defined (available: %s)", ErrMissingLocale, name, strings.Join(r.Names(), ", "))
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Names returns the registered locale names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
