package store

// Filter is a composable conjunction of row predicates. Zero-valued
// fields are skipped; every populated field must match for a row to be
// included.
type Filter struct {
	// Keyword matches rows whose SearchText contains the substring
	// (case-insensitive LIKE).
	Keyword string

	// Group, when non-nil, matches rows with exactly this group id.
	Group *int64

	// Tags, when non-empty, matches rows whose tag is in the set.
	Tags []string

	// Apps, when non-empty, matches rows whose source app name is in
	// the set.
	Apps []string

	// Since and Until bound the timestamp range in Unix seconds,
	// inclusive. Zero means unbounded on that side.
	Since int64
	Until int64
}

// IsZero reports whether no predicate is populated, in which case the
// filter matches every row.
func (f *Filter) IsZero() bool {
	if f == nil {
		return true
	}
	return f.Keyword == "" &&
		f.Group == nil &&
		len(f.Tags) == 0 &&
		len(f.Apps) == 0 &&
		f.Since == 0 &&
		f.Until == 0
}

// Fields is a partial update: column name to new value. Supported
// keys are "timestamp", "group", "raw_data", "preview_data",
// "search_text", "length", "tag", "type" and "content_hash".
type Fields map[string]any

// AppInfo identifies one distinct source application seen in the
// history, used to populate the app facet list.
type AppInfo struct {
	Name string
	Path string
}
