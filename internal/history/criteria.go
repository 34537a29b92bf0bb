package history

import "github.com/clipvault/clipvault/internal/store"

// Criteria is the composed filter a view session applies: keyword,
// category, type facets, app facets and date range. The zero value
// is the default (unfiltered) session.
type Criteria struct {
	Keyword string
	Group   *int64
	Tags    []string
	Apps    []string
	Since   int64
	Until   int64
}

// IsZero reports whether the criteria select the default session:
// no keyword and the system default category.
func (c Criteria) IsZero() bool {
	return c.Keyword == "" &&
		c.Group == nil &&
		len(c.Tags) == 0 &&
		len(c.Apps) == 0 &&
		c.Since == 0 &&
		c.Until == 0
}

// Equal reports whether two criteria are identical. Re-submitting
// equal criteria is a no-op in Cache.Search.
func (c Criteria) Equal(other Criteria) bool {
	if c.Keyword != other.Keyword || c.Since != other.Since || c.Until != other.Until {
		return false
	}
	if (c.Group == nil) != (other.Group == nil) {
		return false
	}
	if c.Group != nil && *c.Group != *other.Group {
		return false
	}
	return equalStrings(c.Tags, other.Tags) && equalStrings(c.Apps, other.Apps)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// filter translates the criteria into a store filter.
func (c Criteria) filter() *store.Filter {
	if c.IsZero() {
		return nil
	}
	return &store.Filter{
		Keyword: c.Keyword,
		Group:   c.Group,
		Tags:    c.Tags,
		Apps:    c.Apps,
		Since:   c.Since,
		Until:   c.Until,
	}
}
