package scheduler

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/harborline/voyage-api/internal/models"
)

// Catalog is the engine's read-only view of every known event instance,
// indexed by uid and by series name. It is built once per scheduling run
// from the persisted catalog plus the user's custom events; the engine
// never mutates instance time fields.
type Catalog struct {
	byUID    map[string]*models.EventInstance
	bySeries map[string][]*models.EventInstance
}

// NewCatalog indexes the provided instances.
func NewCatalog(instances []models.EventInstance) *Catalog {
	c := &Catalog{
		byUID:    make(map[string]*models.EventInstance, len(instances)),
		bySeries: make(map[string][]*models.EventInstance),
	}
	for i := range instances {
		inst := instances[i]
		c.Register(&inst)
	}
	return c
}

// Register adds an instance to both indexes. Used at build time and by the
// companion resolver to force-register companions that were filtered out of
// the initial load. Registering an already-known uid is a no-op.
func (c *Catalog) Register(inst *models.EventInstance) {
	if inst == nil || inst.UID == "" {
		return
	}
	if _, ok := c.byUID[inst.UID]; ok {
		return
	}
	c.byUID[inst.UID] = inst
	series := append(c.bySeries[inst.SeriesName], inst)
	sortChronological(series)
	c.bySeries[inst.SeriesName] = series
}

// Lookup resolves a uid. Missing uids are not an error; stale persisted ids
// are treated as already absent.
func (c *Catalog) Lookup(uid string) (*models.EventInstance, bool) {
	inst, ok := c.byUID[uid]
	return inst, ok
}

// Series returns every instance of a series across the voyage, in
// chronological order.
func (c *Catalog) Series(name string) []*models.EventInstance {
	return c.bySeries[name]
}

// SeriesNames returns all known series names, sorted for determinism.
func (c *Catalog) SeriesNames() []string {
	names := make([]string, 0, len(c.bySeries))
	for name := range c.bySeries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SeriesAfter returns the instances of a series that have not yet passed the
// given voyage-local cursor.
func (c *Catalog) SeriesAfter(name, date string, minute int) []*models.EventInstance {
	var out []*models.EventInstance
	for _, inst := range c.bySeries[name] {
		if inst.Date > date || (inst.Date == date && inst.StartMinutes >= minute) {
			out = append(out, inst)
		}
	}
	return out
}

// DeterministicUID derives the stable identity of a catalog event from its
// date, series name and start minute. Stable across reloads as long as the
// source data is unchanged.
func DeterministicUID(date, seriesName string, startMinutes int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%d", date, seriesName, startMinutes)))
	return hex.EncodeToString(sum[:10])
}

func sortChronological(instances []*models.EventInstance) {
	sort.Slice(instances, func(i, j int) bool {
		a, b := instances[i], instances[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartMinutes != b.StartMinutes {
			return a.StartMinutes < b.StartMinutes
		}
		return a.UID < b.UID
	})
}
