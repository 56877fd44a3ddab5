// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloc/locator/spatial"
)

const empireStateAddress = "350 5th Avenue, New York, NY, 10118"

var empireState = spatial.NewCoordinates(-73.9857, 40.7484)

// fakeCompleter answers every completion with content.
type fakeCompleter struct {
	content string
	err     error
	calls   atomic.Int32
}

func (f *fakeCompleter) Complete(context.Context, CompletionRequest) (string, error) {
	f.calls.Add(1)

	return f.content, f.err
}

// fakeGeocoder resolves every query to the same result.
type fakeGeocoder struct {
	result     *GeocodingResult
	err        error
	reverse    *GeocodingResult
	reverseErr error

	mu       sync.Mutex
	queries  []string
	forward  atomic.Int32
	backward atomic.Int32
}

func (f *fakeGeocoder) Geocode(_ context.Context, query, _ string) (*GeocodingResult, error) {
	f.forward.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	res := *f.result

	return &res, nil
}

func (f *fakeGeocoder) Reverse(context.Context, spatial.Coordinates) (*GeocodingResult, error) {
	f.backward.Add(1)

	if f.reverseErr != nil {
		return nil, f.reverseErr
	}

	if f.reverse == nil {
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: "no reverse result"}
	}

	return f.reverse, nil
}

func (f *fakeGeocoder) calls() int {
	return int(f.forward.Load() + f.backward.Load())
}

func empireStateGeocoder() *fakeGeocoder {
	res := &GeocodingResult{
		Coordinates:      empireState,
		FormattedAddress: empireStateAddress,
		Provider:         "fake",
	}

	return &fakeGeocoder{result: res, reverse: res}
}

func newYorkTimezones(calls *atomic.Int32) TimezoneLookup {
	return TimezoneLookupFunc(func(_, _ float64) ([]string, error) {
		if calls != nil {
			calls.Add(1)
		}

		return []string{"America/New_York"}, nil
	})
}

type fixture struct {
	resolver  *Resolver
	completer *fakeCompleter
	geocoder  *fakeGeocoder
	tzCalls   *atomic.Int32
	now       time.Time
}

func newFixture(t *testing.T, content string, geocoder *fakeGeocoder) *fixture {
	t.Helper()

	f := &fixture{
		completer: &fakeCompleter{content: content},
		geocoder:  geocoder,
		tzCalls:   &atomic.Int32{},
		now:       baseTime,
	}

	opts := DefaultOptions()
	opts.RetryBackoff = time.Millisecond

	cache := NewCache(NewMemoryStore(), opts.CacheTTL, nil)
	cache.now = func() time.Time { return f.now }

	r, err := New(Config{
		Completer: f.completer,
		Geocoder:  f.geocoder,
		Cache:     cache,
		Timezones: newYorkTimezones(f.tzCalls),
		Options:   opts,
	})
	require.NoError(t, err)

	r.now = func() time.Time { return f.now }
	f.resolver = r

	return f
}

func (f *fixture) externalCalls() int {
	return int(f.completer.calls.Load()) + f.geocoder.calls() + int(f.tzCalls.Load())
}

func addressAnswer(address string) string {
	return fmt.Sprintf(`{"address": %q, "locationNotes": "", "confidence": 0.9}`, address)
}

func TestResolveVerifiedAddress(t *testing.T) {
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())

	got, err := f.resolver.Resolve(context.Background(), Query{
		Clues:        []string{"Meet at the Empire State Building", "350 5th Ave"},
		UserLocation: "New York, NY",
	})
	require.NoError(t, err)

	want := &ResolvedLocation{
		Address:     empireStateAddress,
		Coordinates: empireState,
		Confidence:  0.8,
		Timezone:    "America/New_York",
		Tier:        TierVerifiedAddress,
		H3Cell:      got.H3Cell,
		CreatedAt:   baseTime,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}

	assert.NotEmpty(t, got.H3Cell)
	assert.Equal(t, []string{"350 5th Ave, New York, NY"}, f.geocoder.queries)
}

func TestResolveCoordinateOrder(t *testing.T) {
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())

	got, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"Empire State Building"}})
	require.NoError(t, err)

	assert.InDelta(t, -73.9857, got.Coordinates[0], 1e-9)
	assert.InDelta(t, 40.7484, got.Coordinates[1], 1e-9)
	assert.NotEqual(t, spatial.NewCoordinates(40.7484, -73.9857), got.Coordinates)
}

func TestResolveUnverifiedAddress(t *testing.T) {
	tests := []struct {
		name     string
		geocoder func() *fakeGeocoder
	}{
		{"reverse mismatch", func() *fakeGeocoder {
			g := empireStateGeocoder()
			g.reverse = &GeocodingResult{Coordinates: empireState, FormattedAddress: "20 W 34th St, Manhattan, NY"}

			return g
		}},
		{"reverse error", func() *fakeGeocoder {
			g := empireStateGeocoder()
			g.reverseErr = &GeocodingError{Type: ErrorTypeRequestDenied, Message: "denied"}

			return g
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), tt.geocoder())

			got, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"Empire State Building"}})
			require.NoError(t, err)

			assert.InDelta(t, 0.5, got.Confidence, 1e-9)
			assert.Equal(t, TierAddress, got.Tier)
			assert.Equal(t, empireStateAddress, got.Address)
		})
	}
}

func TestResolveNoAddressUsesNotes(t *testing.T) {
	g := empireStateGeocoder()
	g.result = &GeocodingResult{Coordinates: spatial.NewCoordinates(-73.9972, 40.7308), FormattedAddress: "Washington Square Park, New York, NY"}

	f := newFixture(t, `{"address": "NO_ADDRESS", "locationNotes": "near the fountain", "confidence": 0.6}`, g)

	got, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"meet near the fountain"}, UserLocation: "New York, NY"})
	require.NoError(t, err)

	assert.InDelta(t, 0.4, got.Confidence, 1e-9)
	assert.Equal(t, TierNotes, got.Tier)
	assert.Equal(t, "near the fountain", got.LocationNotes)
	assert.Equal(t, []string{"near the fountain"}, g.queries)
	assert.NotContains(t, g.queries, NoAddress)
	assert.Zero(t, g.backward.Load(), "notes tier is never verified")
}

func TestResolveUserCoordinates(t *testing.T) {
	g := empireStateGeocoder()
	f := newFixture(t, `{"address": "NO_ADDRESS", "locationNotes": "", "confidence": 0}`, g)

	got, err := f.resolver.Resolve(context.Background(), Query{
		Clues:           []string{"party tonight!"},
		UserLocation:    "Brooklyn, NY",
		UserCoordinates: &spatial.Point{Lat: 40.6782, Lng: -73.9442},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
	assert.Equal(t, TierUserCoordinates, got.Tier)
	assert.Equal(t, spatial.NewCoordinates(-73.9442, 40.6782), got.Coordinates)
	assert.Equal(t, "Brooklyn, NY", got.Address)
	assert.Zero(t, g.calls())
}

func TestResolveInvalidUserCoordinates(t *testing.T) {
	f := newFixture(t, `{"address": "NO_ADDRESS", "locationNotes": ""}`, empireStateGeocoder())

	_, err := f.resolver.Resolve(context.Background(), Query{
		Clues:           []string{"party tonight!"},
		UserCoordinates: &spatial.Point{Lat: 123, Lng: 0},
	})

	var crdErr *InvalidCoordinatesError
	require.ErrorAs(t, err, &crdErr)
	assert.Equal(t, "user", crdErr.Source)
}

func TestResolveCannotDetermine(t *testing.T) {
	f := newFixture(t, `{"address": "NO_ADDRESS", "locationNotes": ""}`, empireStateGeocoder())

	_, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"party tonight!"}})
	require.ErrorIs(t, err, ErrCannotDetermineLocation)

	n, err := f.resolver.Cache().Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "failures are not cached")
}

func TestResolveEmptyClues(t *testing.T) {
	for _, clues := range [][]string{nil, {}, {"", "   "}, {"<p> </p>"}} {
		f := newFixture(t, addressAnswer("x"), empireStateGeocoder())

		_, err := f.resolver.Resolve(context.Background(), Query{Clues: clues})
		require.ErrorIs(t, err, ErrNoClues)
		assert.Equal(t, "input", ErrorKind(err))
		assert.Zero(t, f.externalCalls())
	}
}

func TestResolveInvalidGeocodedCoordinates(t *testing.T) {
	g := empireStateGeocoder()
	g.result = &GeocodingResult{Coordinates: spatial.NewCoordinates(-73.9857, 95), FormattedAddress: empireStateAddress}

	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), g)

	got, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"Empire State Building"}})
	assert.Nil(t, got)

	var crdErr *InvalidCoordinatesError
	require.ErrorAs(t, err, &crdErr)
	assert.Equal(t, "geocoder", crdErr.Source)
	assert.ErrorIs(t, err, spatial.ErrInvalidCoordinates)
	assert.Zero(t, g.backward.Load())
}

func TestResolveGeocodingFailure(t *testing.T) {
	g := empireStateGeocoder()
	g.err = &GeocodingError{Type: ErrorTypeNotFound, Message: "no results"}

	f := newFixture(t, addressAnswer("1 Nowhere Rd, Atlantis, ZZ"), g)

	_, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"Atlantis"}})

	var geoErr *GeocodingError
	require.ErrorAs(t, err, &geoErr)
	assert.Equal(t, ErrorTypeNotFound, geoErr.Type)
	assert.EqualValues(t, 1, g.forward.Load(), "not found is not retried")
}

func TestResolveGeocodingRetry(t *testing.T) {
	g := &flakyGeocoder{fakeGeocoder: empireStateGeocoder(), failures: 1}
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), g.fakeGeocoder)
	f.resolver.geocoder = g

	got, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"Empire State Building"}})
	require.NoError(t, err)
	assert.Equal(t, empireState, got.Coordinates)
	assert.EqualValues(t, 2, g.attempts.Load())
}

// flakyGeocoder fails the first forward lookups with a network error.
type flakyGeocoder struct {
	*fakeGeocoder

	failures int32
	attempts atomic.Int32
}

func (f *flakyGeocoder) Geocode(ctx context.Context, query, contextText string) (*GeocodingResult, error) {
	if f.attempts.Add(1) <= f.failures {
		return nil, &GeocodingError{Type: ErrorTypeNetworkError, Message: "connection reset"}
	}

	return f.fakeGeocoder.Geocode(ctx, query, contextText)
}

func TestResolveExtractionFailures(t *testing.T) {
	t.Run("unparseable", func(t *testing.T) {
		f := newFixture(t, "I am not sure where that is.", empireStateGeocoder())

		_, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"somewhere"}})

		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
		assert.True(t, IsUnparseable(err))
		assert.EqualValues(t, 1, f.completer.calls.Load(), "unparseable answers are not retried")
		assert.Zero(t, f.geocoder.calls())
	})

	t.Run("completion error", func(t *testing.T) {
		f := newFixture(t, "", empireStateGeocoder())
		f.completer.err = errors.New("model overloaded")

		_, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"somewhere"}})

		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
		assert.Equal(t, "extraction", ErrorKind(err))
	})
}

func TestResolveTimezoneFailureDefaultsToUTC(t *testing.T) {
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())
	f.resolver.timezones = TimezoneLookupFunc(func(_, _ float64) ([]string, error) {
		panic("timezone database unavailable")
	})

	got, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{"Empire State Building"}})
	require.NoError(t, err)
	assert.Equal(t, "UTC", got.Timezone)

	f = newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())
	f.resolver.timezones = TimezoneLookupFunc(func(_, _ float64) ([]string, error) {
		return nil, errors.New("lookup failed")
	})

	got, err = f.resolver.Resolve(context.Background(), Query{Clues: []string{"Empire State Building"}})
	require.NoError(t, err)
	assert.Equal(t, "UTC", got.Timezone)
}

func TestResolveCacheRoundTrip(t *testing.T) {
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())
	ctx := context.Background()

	first, err := f.resolver.Resolve(ctx, Query{Clues: []string{"B", "a"}, UserLocation: "X"})
	require.NoError(t, err)

	calls := f.externalCalls()
	require.Positive(t, calls)

	f.now = baseTime.Add(6 * 24 * time.Hour)

	second, err := f.resolver.Resolve(ctx, Query{Clues: []string{"A", "b"}, UserLocation: "X"})
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result mismatch (-first +second):\n%s", diff)
	}

	assert.Equal(t, calls, f.externalCalls(), "cache hit must not call collaborators")
}

func TestResolveCacheExpiry(t *testing.T) {
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())
	ctx := context.Background()
	q := Query{Clues: []string{"Empire State Building"}}

	_, err := f.resolver.Resolve(ctx, q)
	require.NoError(t, err)

	calls := f.externalCalls()

	f.now = baseTime.Add(7*24*time.Hour + time.Second)

	got, err := f.resolver.Resolve(ctx, q)
	require.NoError(t, err)

	assert.Greater(t, f.externalCalls(), calls, "expired entry must re-run the pipeline")
	assert.Equal(t, f.now, got.CreatedAt)
	assert.EqualValues(t, 2, f.completer.calls.Load())
}

func TestResolveDistinctUserLocation(t *testing.T) {
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, Query{Clues: []string{"a"}, UserLocation: "X"})
	require.NoError(t, err)

	_, err = f.resolver.Resolve(ctx, Query{Clues: []string{"a"}, UserLocation: "Y"})
	require.NoError(t, err)

	assert.EqualValues(t, 2, f.completer.calls.Load())
}

func TestResolveConcurrent(t *testing.T) {
	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := f.resolver.Resolve(context.Background(), Query{Clues: []string{fmt.Sprintf("clue %d", i%4)}})
			assert.NoError(t, err)
			assert.Equal(t, TierVerifiedAddress, got.Tier)
		}()
	}

	wg.Wait()

	n, err := f.resolver.Cache().Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Geocoder: empireStateGeocoder(), Options: DefaultOptions()})
	require.Error(t, err)

	_, err = New(Config{Completer: &fakeCompleter{}, Options: DefaultOptions()})
	require.Error(t, err)

	opts := DefaultOptions()
	opts.Model = ""
	_, err = New(Config{Completer: &fakeCompleter{}, Geocoder: empireStateGeocoder(), Options: opts})
	require.Error(t, err)
}
