// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eventloc/locator/spatial"
)

var (
	// ErrNoClues is returned when a query carries no usable clue.
	ErrNoClues = errors.New("no location clues provided")
	// ErrCannotDetermineLocation is returned when neither an address, notes
	// nor user coordinates are available.
	ErrCannotDetermineLocation = errors.New("cannot determine event location")
	// ErrUnparseableExtraction is wrapped by ExtractionError when the model
	// answer matched neither the JSON shape nor any address pattern.
	ErrUnparseableExtraction = errors.New("could not parse address extraction response")
)

// ExtractionError reports a failed address extraction step.
type ExtractionError struct {
	Content string // raw completion, possibly empty
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("address extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// InvalidCoordinatesError reports coordinates that failed validation mid pipeline.
type InvalidCoordinatesError struct {
	Source      string
	Coordinates spatial.Coordinates
	Err         error
}

func (e *InvalidCoordinatesError) Error() string {
	return fmt.Sprintf("%s returned invalid coordinates [%v, %v]: %v",
		e.Source, e.Coordinates.Lon(), e.Coordinates.Lat(), e.Err)
}

func (e *InvalidCoordinatesError) Unwrap() error {
	return e.Err
}

// GeocodingError represents a failed call to a geocoding provider.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding errors.
type ErrorType int

const (
	// ErrorTypeUnknown unknown error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound location not found.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest invalid request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError network error.
	ErrorTypeNetworkError
	// ErrorTypeRequestDenied the provider explicitly denied the request.
	ErrorTypeRequestDenied
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetworkError:
		return "network"
	case ErrorTypeRequestDenied:
		return "request_denied"
	default:
		return "unknown"
	}
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether err is caused by a rate limit.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is caused by an exhausted quota.
func IsQuotaExceededError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsRetryable reports whether a failed external call may succeed if repeated.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var geoErr *GeocodingError
	if errors.As(err, &geoErr) && geoErr.Type == ErrorTypeNetworkError {
		return true
	}

	return IsRateLimitError(err) || IsTimeoutError(err)
}

// ClassifyHTTPError maps an HTTP status code to a geocoding error.
func ClassifyHTTPError(statusCode int) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		return &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "location not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}

// ClassifyProviderStatus maps a Google style "status" field to a geocoding
// error. It returns nil for "OK".
func ClassifyProviderStatus(status, message string) *GeocodingError {
	geoErr := &GeocodingError{Message: "geocoder status: " + status}
	if message != "" {
		geoErr.Message += " (" + message + ")"
	}

	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		geoErr.Type = ErrorTypeNotFound
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		geoErr.Type = ErrorTypeQuotaExceeded
	case "REQUEST_DENIED":
		geoErr.Type = ErrorTypeRequestDenied
	case "INVALID_REQUEST":
		geoErr.Type = ErrorTypeInvalidRequest
	default:
		geoErr.Type = ErrorTypeUnknown
	}

	return geoErr
}

// ErrorKind names the failure class of a resolution error, for logs and metrics.
func ErrorKind(err error) string {
	var (
		extErr *ExtractionError
		geoErr *GeocodingError
		crdErr *InvalidCoordinatesError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoClues):
		return "input"
	case errors.As(err, &extErr):
		return "extraction"
	case errors.As(err, &crdErr):
		return "invalid_coordinates"
	case errors.As(err, &geoErr):
		return "geocoding"
	case errors.Is(err, ErrCannotDetermineLocation):
		return "undetermined"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}
