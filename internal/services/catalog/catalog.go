// Package catalog holds the static model catalogs and the selection policy
// that turns a chat turn into an ordered chain of candidates.
package catalog

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Egham-7/adaptive-chat/internal/models"
)

// Catalog is an immutable, ordered set of model profiles keyed by logical name.
// Declaration order is preserved and breaks priority ties.
type Catalog struct {
	profiles []models.ModelProfile
	byName   map[string]int
}

// New validates the profiles and builds a catalog
func New(profiles []models.ModelProfile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one profile")
	}

	c := &Catalog{
		profiles: slices.Clone(profiles),
		byName:   make(map[string]int, len(profiles)),
	}
	for i, p := range c.profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile name %q", p.Name)
		}
		c.byName[p.Name] = i
	}
	return c, nil
}

// MustNew is New for built-in catalogs
func MustNew(profiles []models.ModelProfile) *Catalog {
	c, err := New(profiles)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the profile registered under name
func (c *Catalog) Lookup(name string) (models.ModelProfile, bool) {
	i, ok := c.byName[name]
	if !ok {
		return models.ModelProfile{}, false
	}
	return c.profiles[i], true
}

// Profiles returns the profiles in declaration order
func (c *Catalog) Profiles() []models.ModelProfile {
	return slices.Clone(c.profiles)
}

// Names returns the logical names in declaration order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.profiles))
	for i, p := range c.profiles {
		names[i] = p.Name
	}
	return names
}

// DeepReasoning returns the profile flagged as deep reasoning. Without a flag
// the most preferred profile is returned.
func (c *Catalog) DeepReasoning() models.ModelProfile {
	for _, p := range c.profiles {
		if p.DeepReasoning {
			return p
		}
	}
	return c.byPriority()[0]
}

// Except returns every profile other than the named one, sorted ascending by
// priority with ties kept in declaration order.
func (c *Catalog) Except(name string) []models.ModelProfile {
	rest := make([]models.ModelProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		if p.Name != name {
			rest = append(rest, p)
		}
	}
	sortByPriority(rest)
	return rest
}

func (c *Catalog) byPriority() []models.ModelProfile {
	all := slices.Clone(c.profiles)
	sortByPriority(all)
	return all
}

func sortByPriority(profiles []models.ModelProfile) {
	slices.SortStableFunc(profiles, func(a, b models.ModelProfile) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
}
