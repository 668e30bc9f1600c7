package guidance

import "github.com/jonathan/crna-guide/internal/catalog"

// Qualify returns the catalog entries whose conditions all hold and which the user has
// not already marked complete, in catalog order.
func Qualify(cat *catalog.Catalog, facts catalog.Facts) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range cat.Entries() {
		if facts.Snapshot.CompletedActions[e.ID] {
			continue
		}
		if e.Eligible(facts) {
			out = append(out, e)
		}
	}
	return out
}
