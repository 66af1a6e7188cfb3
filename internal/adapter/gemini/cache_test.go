package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

type countingGeocoder struct {
	calls int
	loc   domain.ResolvedLocation
	err   error
}

func (g *countingGeocoder) ResolveQuery(context.Context, string) (domain.ResolvedLocation, error) {
	g.calls++
	return g.loc, g.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{loc: domain.ResolvedLocation{
		Coord: domain.Coordinate{Lat: 24.7, Lon: 46.7},
		Name:  "Riyadh",
	}}
	cached := NewCachedGeocoder(inner, 8)

	first, err := cached.ResolveQuery(context.Background(), "Riyadh")
	require.NoError(t, err)
	second, err := cached.ResolveQuery(context.Background(), "Riyadh")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "should only call inner once for repeated query")
}

func TestCachedGeocoder_KeyNormalization(t *testing.T) {
	inner := &countingGeocoder{loc: domain.ResolvedLocation{Name: "Riyadh"}}
	cached := NewCachedGeocoder(inner, 8)

	_, err := cached.ResolveQuery(context.Background(), "Riyadh")
	require.NoError(t, err)
	_, err = cached.ResolveQuery(context.Background(), "  riyadh ")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "case and whitespace variants share one entry")
}

func TestCachedGeocoder_ErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("upstream down")}
	cached := NewCachedGeocoder(inner, 8)

	_, err := cached.ResolveQuery(context.Background(), "Riyadh")
	require.Error(t, err)
	_, err = cached.ResolveQuery(context.Background(), "Riyadh")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "failed lookups retry the inner geocoder")
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{loc: domain.ResolvedLocation{Name: "anywhere"}}
	cached := NewCachedGeocoder(inner, 2)

	for _, q := range []string{"a", "b", "c"} {
		_, err := cached.ResolveQuery(context.Background(), q)
		require.NoError(t, err)
	}

	// "a" was evicted as least recently used.
	_, err := cached.ResolveQuery(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)
}
