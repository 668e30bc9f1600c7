package guidance

import (
	"testing"

	"github.com/jonathan/crna-guide/internal/catalog"
	"github.com/jonathan/crna-guide/internal/fixtures"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rankingCatalog = `version: test
steps:
  - {id: zeta, title: Z, category: academic, tier: long_term, order: 1, when: [{predicate: always}]}
  - {id: beta, title: B, category: academic, tier: quick_win, order: 2, when: [{predicate: always}]}
  - {id: alpha, title: A, category: academic, tier: quick_win, order: 2, when: [{predicate: always}]}
  - {id: gamma, title: G, category: academic, tier: moderate, order: 1, when: [{predicate: always}]}
  - {id: delta, title: D, category: academic, tier: quick_win, order: 1, when: [{predicate: always}]}
  - {id: never, title: N, category: academic, tier: quick_win, order: 0, when: [{predicate: stage_in, stages: [admitted]}]}
`

func mustParse(t *testing.T, doc string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(doc))
	require.NoError(t, err)
	return cat
}

func allEntries(t *testing.T) []catalog.Entry {
	t.Helper()
	cat := mustParse(t, rankingCatalog)
	s := types.UserSnapshot{CompletedActions: map[string]bool{}}
	return Qualify(cat, catalog.Facts{Snapshot: &s, Stage: types.StageExploring})
}

func ids(steps []types.NextBestStep) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.ID)
	}
	return out
}

func TestRank_TierThenOrderThenID(t *testing.T) {
	steps := Rank(allEntries(t), 0)

	assert.Equal(t, []string{"delta", "alpha", "beta", "gamma", "zeta"}, ids(steps))
	for i, s := range steps {
		assert.Equal(t, i+1, s.Rank)
	}
}

func TestRank_TruncatesAfterSorting(t *testing.T) {
	steps := Rank(allEntries(t), 2)
	assert.Equal(t, []string{"delta", "alpha"}, ids(steps))
}

func TestRank_Idempotent(t *testing.T) {
	entries := allEntries(t)
	first := Rank(entries, 0)

	reversed := make([]catalog.Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	second := Rank(reversed, 0)

	assert.Equal(t, first, second)
	assert.Equal(t, "zeta", entries[0].ID, "input must not be reordered")
}

func TestRank_Empty(t *testing.T) {
	steps := Rank(nil, 5)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
}

func TestQualify_ExcludesCompleted(t *testing.T) {
	cat := mustParse(t, rankingCatalog)
	s := types.UserSnapshot{CompletedActions: map[string]bool{"alpha": true, "zeta": true}}

	got := Qualify(cat, catalog.Facts{Snapshot: &s, Stage: types.StageExploring})
	gotIDs := make([]string, 0, len(got))
	for _, e := range got {
		gotIDs = append(gotIDs, e.ID)
	}
	assert.Equal(t, []string{"beta", "gamma", "delta"}, gotIDs)
}

func TestQualify_CompletedActionsAreCaseInsensitive(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	raw := fixtures.Struggling()
	raw.CompletedActions = []string{"Obtain-BLS"}
	s, err := snapshot.Normalize(raw)
	require.NoError(t, err)

	for _, e := range Qualify(cat, catalog.Facts{Snapshot: &s, Stage: types.StageExploring}) {
		assert.NotEqual(t, "obtain-bls", e.ID)
	}
}
