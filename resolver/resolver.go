// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventloc/locator/logging"
	"github.com/eventloc/locator/spatial"
)

// Config gathers the collaborators of a Resolver.
type Config struct {
	Completer  Completer      // required
	Geocoder   Geocoder       // required
	Cache      *Cache         // nil means an in-memory cache with Options.CacheTTL
	Timezones  TimezoneLookup // nil always yields DefaultTimezone
	Similarity Similarity     // nil means JaccardSimilarity
	Metrics    *Metrics       // optional
	Options    Options
	Logger     *zap.Logger
}

// Resolver resolves event location clues. It is safe for concurrent use; the
// cache is the only state shared between calls.
type Resolver struct {
	extractor *AddressExtractor
	geocoder  Geocoder
	verifier  *ReverseVerifier
	cache     *Cache
	timezones TimezoneLookup
	metrics   *Metrics
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// New validates cfg and builds a Resolver.
func New(cfg Config) (*Resolver, error) {
	if cfg.Completer == nil {
		return nil, errors.New("resolver: completer is required")
	}

	if cfg.Geocoder == nil {
		return nil, errors.New("resolver: geocoder is required")
	}

	if err := cfg.Options.Validate(); err != nil {
		return nil, fmt.Errorf("resolver: invalid options: %w", err)
	}

	logger := logging.OrNop(cfg.Logger)

	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(NewMemoryStore(), cfg.Options.CacheTTL, logger)
	}

	return &Resolver{
		extractor: NewAddressExtractor(cfg.Completer, cfg.Options, logger),
		geocoder:  cfg.Geocoder,
		verifier:  NewReverseVerifier(cfg.Geocoder, cfg.Similarity, cfg.Options.SimilarityThreshold, logger),
		cache:     cache,
		timezones: cfg.Timezones,
		metrics:   cfg.Metrics,
		opts:      cfg.Options,
		now:       time.Now,
		logger:    logger.Named("resolver"),
	}, nil
}

// Cache returns the cache used by the resolver.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the location described by q. A fresh cached result is
// returned as is; otherwise the clues go through extraction, geocoding and
// verification, and the outcome is cached. Failed resolutions are never cached.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*ResolvedLocation, error) {
	start := r.now()
	fingerprint := Fingerprint(q.Clues, q.UserLocation)
	logger := r.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("fingerprint", fingerprint))

	if loc, ok := r.cache.Get(ctx, fingerprint); ok {
		r.metrics.cacheLookup(true)
		logger.Debug("cache hit", zap.String("tier", string(loc.Tier)))

		return loc, nil
	}

	r.metrics.cacheLookup(false)

	loc, err := r.resolve(ctx, q, logger)
	if err != nil {
		r.metrics.failed(err, r.now().Sub(start))

		if IsQuotaExceededError(err) {
			logger.Error("geocoding quota exhausted", zap.Error(err))
		} else {
			logger.Info("resolution failed", zap.String("kind", ErrorKind(err)), zap.Error(err))
		}

		return nil, err
	}

	r.cache.Set(ctx, fingerprint, loc)
	r.metrics.resolved(loc.Tier, r.now().Sub(start))

	logger.Info("resolved",
		zap.String("tier", string(loc.Tier)),
		zap.String("address", loc.Address),
		zap.Stringer("point", loc.Coordinates.Point()),
		zap.String("timezone", loc.Timezone),
		zap.Duration("elapsed", r.now().Sub(start)))

	return loc, nil
}

func (r *Resolver) resolve(ctx context.Context, q Query, logger *zap.Logger) (*ResolvedLocation, error) {
	clues := DedupeClues(q.Clues)
	if len(clues) == 0 {
		return nil, ErrNoClues
	}

	clueText := strings.Join(clues, ClueTextSeparator)

	ext, err := callWithRetry(ctx, r.opts.LLMTimeout, r.opts.Retries, r.opts.RetryBackoff,
		func(ctx context.Context) (Extraction, error) {
			return r.extractor.Extract(ctx, clueText, q.UserLocation)
		})
	if err != nil {
		return nil, err
	}

	loc := &ResolvedLocation{}

	switch {
	case ext.HasAddress():
		res, err := r.geocode(ctx, ext.Address, q.UserLocation)
		if err != nil {
			return nil, err
		}

		loc.Address = addressOr(res.FormattedAddress, ext.Address)
		loc.Coordinates = res.Coordinates
		loc.Tier = TierAddress

		if r.verify(ctx, res.Coordinates, loc.Address) {
			loc.Tier = TierVerifiedAddress
		}

	case ext.HasNotes():
		res, err := r.geocode(ctx, ext.LocationNotes, q.UserLocation)
		if err != nil {
			return nil, err
		}

		loc.Address = addressOr(res.FormattedAddress, ext.LocationNotes)
		loc.Coordinates = res.Coordinates
		loc.Tier = TierNotes

	case q.UserCoordinates != nil:
		coords := q.UserCoordinates.Coordinates()
		if err := coords.Validate(); err != nil {
			return nil, &InvalidCoordinatesError{Source: "user", Coordinates: coords, Err: err}
		}

		loc.Address = q.UserLocation
		loc.Coordinates = coords
		loc.Tier = TierUserCoordinates

	default:
		return nil, ErrCannotDetermineLocation
	}

	if ext.HasNotes() {
		loc.LocationNotes = ext.LocationNotes
	}

	loc.Confidence = loc.Tier.Confidence()

	if q.UserCoordinates != nil && loc.Tier != TierUserCoordinates {
		point := loc.Coordinates.Point()
		logger.Debug("distance from user", zap.Float64("meters", point.HaversineDistance(q.UserCoordinates)))
	}

	tz, err := timezoneAt(r.timezones, loc.Coordinates.Lat(), loc.Coordinates.Lon())
	if err != nil {
		logger.Warn("timezone lookup failed, using default", zap.String("timezone", tz), zap.Error(err))
	}

	loc.Timezone = tz

	if cell, err := spatial.CellAt(loc.Coordinates, r.opts.H3Resolution); err != nil {
		logger.Debug("no h3 cell", zap.Error(err))
	} else {
		loc.H3Cell = cell
	}

	loc.CreatedAt = r.now().UTC()

	return loc, nil
}

// geocode runs a forward lookup and rejects out of range coordinates.
func (r *Resolver) geocode(ctx context.Context, query, contextText string) (*GeocodingResult, error) {
	res, err := callWithRetry(ctx, r.opts.GeocodeTimeout, r.opts.Retries, r.opts.RetryBackoff,
		func(ctx context.Context) (*GeocodingResult, error) {
			return r.geocoder.Geocode(ctx, query, contextText)
		})
	if err != nil {
		return nil, err
	}

	if err := res.Coordinates.Validate(); err != nil {
		return nil, &InvalidCoordinatesError{Source: "geocoder", Coordinates: res.Coordinates, Err: err}
	}

	return res, nil
}

func (r *Resolver) verify(ctx context.Context, coords spatial.Coordinates, address string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.opts.GeocodeTimeout)
	defer cancel()

	return r.verifier.Verify(ctx, coords, address)
}

func addressOr(formatted, fallback string) string {
	if formatted != "" {
		return formatted
	}

	return fallback
}
