// Package catalogue holds the static id to metadata table of legacy
// activities.
package catalogue

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/learnsync/internal/domain/progress"
)

//go:embed legacy_activities.yaml
var legacyYAML []byte

type Entry struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Kind    string `yaml:"kind"`
	Ordinal int    `yaml:"ordinal"`
}

type document struct {
	Version    int     `yaml:"version"`
	Activities []Entry `yaml:"activities"`
}

type Catalogue struct {
	byID    map[string]Entry
	entries []Entry
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
	defaultErr  error
)

// Default returns the embedded legacy catalogue.
func Default() (*Catalogue, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(legacyYAML)
	})
	return defaultCat, defaultErr
}

// Parse decodes a catalogue document. Ids must be unique and non-empty.
func Parse(data []byte) (*Catalogue, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}
	c := &Catalogue{byID: make(map[string]Entry, len(doc.Activities))}
	for i, e := range doc.Activities {
		e.ID = normalizeID(e.ID)
		if e.ID == "" {
			return nil, fmt.Errorf("catalogue: entry %d has no id", i)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("catalogue: duplicate id %q", e.ID)
		}
		if strings.TrimSpace(e.Title) == "" {
			e.Title = PlaceholderTitle(e.ID)
		}
		if e.Ordinal >= progress.PlaceholderOrdinal {
			return nil, fmt.Errorf("catalogue: %q ordinal %d collides with placeholders", e.ID, e.Ordinal)
		}
		c.byID[e.ID] = e
		c.entries = append(c.entries, e)
	}
	sort.SliceStable(c.entries, func(i, j int) bool { return c.entries[i].Ordinal < c.entries[j].Ordinal })
	return c, nil
}

func (c *Catalogue) Lookup(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.byID[normalizeID(id)]
	return e, ok
}

// Entries returns the catalogue sorted by ordinal.
func (c *Catalogue) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (e Entry) KindValue() progress.ActivityKind {
	switch k := progress.ActivityKind(strings.ToLower(strings.TrimSpace(e.Kind))); k {
	case progress.ActivityKindLesson, progress.ActivityKindGame, progress.ActivityKindQuiz, progress.ActivityKindStory:
		return k
	default:
		return progress.ActivityKindUnknown
	}
}

// Activity builds the row for this entry under externalID, which keeps the
// caller's spelling of the id.
func (e Entry) Activity(externalID string) *progress.Activity {
	return &progress.Activity{
		ExternalID: externalID,
		Title:      e.Title,
		Kind:       e.KindValue(),
		Ordinal:    e.Ordinal,
	}
}

// Placeholder builds a minimal row for an id the catalogue does not know.
func Placeholder(externalID string) *progress.Activity {
	return &progress.Activity{
		ExternalID:  externalID,
		Title:       PlaceholderTitle(externalID),
		Kind:        progress.ActivityKindUnknown,
		Ordinal:     progress.PlaceholderOrdinal,
		Placeholder: true,
	}
}

// PlaceholderTitle derives a display title from an activity id:
// "word_builder-2" becomes "Word Builder 2".
func PlaceholderTitle(id string) string {
	fields := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == '/' || unicode.IsSpace(r)
	})
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	if len(fields) == 0 {
		return "Untitled Activity"
	}
	return strings.Join(fields, " ")
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
