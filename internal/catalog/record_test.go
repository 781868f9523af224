package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64Coercion(t *testing.T) {
	t.Parallel()

	rec := Record{
		"json":  float64(42),
		"bson":  int64(42),
		"short": int32(42),
		"text":  "42",
	}

	for _, key := range []string{"json", "bson", "short"} {
		n, ok := rec.Int64(key)
		require.True(t, ok, key)
		assert.Equal(t, int64(42), n, key)
	}

	_, ok := rec.Int64("text")
	assert.False(t, ok, "strings are not silently coerced")
	_, ok = rec.Int64("missing")
	assert.False(t, ok)
}

func TestSubHandlesBothMapShapes(t *testing.T) {
	t.Parallel()

	rec := Record{
		"plain":  map[string]any{"id": float64(7)},
		"record": Record{"id": int64(7)},
		"scalar": "nope",
	}

	id, ok := rec.Sub("plain").ID()
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	id, ok = rec.Sub("record").ID()
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	assert.Nil(t, rec.Sub("scalar"))
	assert.Nil(t, rec.Sub("missing"))
}

func TestSliceDropsNonObjects(t *testing.T) {
	t.Parallel()

	rec := Record{
		"teams": []any{
			map[string]any{"id": float64(1)},
			"garbage",
			map[string]any{"id": float64(2)},
		},
	}

	teams := rec.Slice("teams")
	require.Len(t, teams, 2)
	id, _ := teams[1].ID()
	assert.Equal(t, int64(2), id)
	assert.Nil(t, rec.Slice("missing"))
}

func TestCloneIsShallowAndIndependent(t *testing.T) {
	t.Parallel()

	orig := Record{"id": int64(1), "name": "Sentinels"}
	cp := orig.Clone()
	cp["modified_at"] = "now"

	assert.NotContains(t, orig, "modified_at")
	assert.Equal(t, "Sentinels", cp.String("name"))
}

func TestProjectKeepsOnlyKnownKeys(t *testing.T) {
	t.Parallel()

	team := Record{"id": int64(3), "name": "LOUD", "image_url": "x.png", "acronym": "LLL"}
	got := team.Project("id", "name", "image_url", "absent")

	assert.Equal(t, Record{"id": int64(3), "name": "LOUD", "image_url": "x.png"}, got)
}

func TestMatchesFilter(t *testing.T) {
	t.Parallel()

	rec := Record{"id": float64(100), "status": "running", "name": "VCT"}

	assert.True(t, rec.MatchesFilter(nil))
	assert.True(t, rec.MatchesFilter(map[string]string{"status": "running"}))
	assert.True(t, rec.MatchesFilter(map[string]string{"id": "100"}), "string filter matches numeric field")
	assert.False(t, rec.MatchesFilter(map[string]string{"status": "finished"}))
	assert.False(t, rec.MatchesFilter(map[string]string{"absent": "x"}))
	assert.False(t, rec.MatchesFilter(map[string]string{"id": "101"}))
}

func TestDedupeByIDLaterWins(t *testing.T) {
	t.Parallel()

	all := []Record{{"id": float64(7), "name": "a"}, {"id": float64(8), "name": "b"}}
	past := []Record{{"id": float64(8), "name": "b2"}}
	upcoming := []Record{{"id": float64(9), "name": "c"}, {"no_id": true}}

	got := DedupeByID(all, past, upcoming)
	require.Len(t, got, 3)

	byID := map[int64]Record{}
	for _, r := range got {
		id, ok := r.ID()
		require.True(t, ok)
		byID[id] = r
	}
	assert.Equal(t, "b2", byID[8].String("name"), "later variant wins on collision")
	assert.Contains(t, byID, int64(7))
	assert.Contains(t, byID, int64(9))
}

func TestCollectionHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid("matches"))
	assert.False(t, Valid("heroes"))
	assert.True(t, Matches.HasVariants())
	assert.False(t, Teams.HasVariants())
	assert.Len(t, Collections(), 6)

	id, err := ParseID("1337")
	require.NoError(t, err)
	assert.Equal(t, int64(1337), id)
	_, err = ParseID("abc")
	assert.Error(t, err)
}
