package catalog

import (
	"image"
	"sort"

	"github.com/GriffinCanCode/cardscan/internal/phash"
)

// Entry is one reference card. Entries are immutable once loaded.
type Entry struct {
	ID          string            `json:"id"`
	Set         string            `json:"set"`
	Name        string            `json:"name"`
	Path        string            `json:"path,omitempty"`
	Image       image.Image       `json:"-"`
	Fingerprint phash.Fingerprint `json:"fingerprint"`
}

// SetInfo describes one set discovered in the catalog layout.
type SetInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Catalog is an ordered, read-only collection of entries. It is safe for
// concurrent use.
type Catalog struct {
	entries []*Entry
	byID    map[string]*Entry
	sets    []SetInfo
}

// New builds a catalog over entries in the given order. Later duplicates of
// an ID are still ranked but Lookup returns the first.
func New(entries ...*Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		byID:    make(map[string]*Entry, len(entries)),
	}
	counts := make(map[string]int)
	for _, e := range entries {
		if _, ok := c.byID[e.ID]; !ok {
			c.byID[e.ID] = e
		}
		counts[e.Set]++
	}
	for name, n := range counts {
		c.sets = append(c.sets, SetInfo{Name: name, Count: n})
	}
	sort.Slice(c.sets, func(i, j int) bool { return c.sets[i].Name < c.sets[j].Name })
	return c
}

// Entries returns the entries in catalog order. The slice is a copy; the
// entries are shared.
func (c *Catalog) Entries() []*Entry {
	return append([]*Entry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup finds an entry by ID.
func (c *Catalog) Lookup(id string) (*Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Sets lists set labels with their entry counts, sorted by name.
func (c *Catalog) Sets() []SetInfo {
	return append([]SetInfo(nil), c.sets...)
}
