// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eventloc/locator/spatial"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. A nil httpClient
// gets a client with a 10 second timeout.
func NewGoogleMapsGeocoder(apiKey string, httpClient *http.Client) *GoogleMapsGeocoder {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	return &GoogleMapsGeocoder{
		apiKey:     apiKey,
		baseURL:    googleGeocodeURL,
		httpClient: httpClient,
	}
}

type googleAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type googleMapsResponse struct {
	Results []struct {
		AddressComponents []googleAddressComponent `json:"address_components"`
		Geometry          struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		PartialMatch     bool   `json:"partial_match"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, REQUEST_DENIED, etc.
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves query, qualified by contextText (usually "City, ST"),
// and returns the first result.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, query, contextText string) (*GeocodingResult, error) {
	searchQuery := strings.TrimSpace(query)
	if contextText != "" && !strings.Contains(strings.ToLower(searchQuery), strings.ToLower(contextText)) {
		searchQuery = fmt.Sprintf("%s, %s", searchQuery, contextText)
	}

	params := url.Values{}
	params.Set("address", searchQuery)

	res, err := g.call(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", searchQuery, err)
	}

	return res, nil
}

// Reverse returns the address at coords.
func (g *GoogleMapsGeocoder) Reverse(ctx context.Context, coords spatial.Coordinates) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("latlng",
		strconv.FormatFloat(coords.Lat(), 'f', -1, 64)+","+strconv.FormatFloat(coords.Lon(), 'f', -1, 64))

	res, err := g.call(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding [%v, %v]: %w", coords.Lon(), coords.Lat(), err)
	}

	return res, nil
}

func (g *GoogleMapsGeocoder) call(ctx context.Context, params url.Values) (*GeocodingResult, error) {
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		errType := ErrorTypeNetworkError
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			errType = ErrorTypeTimeout
		}

		return nil, &GeocodingError{Type: errType, Message: "geocoding request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	if geoErr := ClassifyProviderStatus(gmResp.Status, gmResp.ErrorMessage); geoErr != nil {
		return nil, geoErr
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: "no results found"}
	}

	// most relevant match only
	result := gmResp.Results[0]
	components := extractComponents(result.AddressComponents)

	formatted := result.FormattedAddress
	if !components.IsZero() {
		formatted = components.Format()
	}

	return &GeocodingResult{
		Coordinates:      spatial.NewCoordinates(result.Geometry.Location.Lng, result.Geometry.Location.Lat),
		FormattedAddress: formatted,
		Components:       components,
		LocationType:     result.Geometry.LocationType,
		PlaceID:          result.PlaceID,
		IsPartialMatch:   result.PartialMatch,
		Provider:         "google_maps",
	}, nil
}

func extractComponents(list []googleAddressComponent) AddressComponents {
	var c AddressComponents

	for _, comp := range list {
		for _, typ := range comp.Types {
			switch typ {
			case "street_number":
				c.StreetNumber = comp.LongName
			case "route":
				c.Street = comp.LongName
			case "locality":
				c.City = comp.LongName
			case "administrative_area_level_1":
				c.State = comp.ShortName
			case "postal_code":
				c.Zip = comp.LongName
			}
		}
	}

	return c
}
