// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eventloc/locator/logging"
)

// Server exposes a Resolver over HTTP.
type Server struct {
	resolver *Resolver
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer creates a server. A nil gatherer disables /metrics.
func NewServer(resolver *Resolver, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		resolver: resolver,
		gatherer: gatherer,
		logger:   logging.OrNop(logger).Named("server"),
	}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	r.GET("/healthz", s.healthz)
	r.POST("/api/locations/resolve", s.resolveLocation)
	r.GET("/api/locations/fingerprint", s.fingerprint)
	r.GET("/api/cache/stats", s.cacheStats)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			return err
		}

		return nil
	}
}

func (s *Server) logRequests(c *gin.Context) {
	c.Next()

	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()))
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) resolveLocation(c *gin.Context) {
	var q Query
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	loc, err := s.resolver.Resolve(c.Request.Context(), q)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": ErrorKind(err)})

		return
	}

	c.JSON(http.StatusOK, loc)
}

// FingerprintResponse is the body of GET /api/locations/fingerprint.
type FingerprintResponse struct {
	Fingerprint string `json:"fingerprint"`
	Cached      bool   `json:"cached"`
}

func (s *Server) fingerprint(c *gin.Context) {
	clues := c.QueryArray("clue")
	if len(clues) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one clue query parameter is required"})

		return
	}

	fp := Fingerprint(clues, c.Query("user_location"))
	_, cached := s.resolver.Cache().Get(c.Request.Context(), fp)

	c.JSON(http.StatusOK, FingerprintResponse{Fingerprint: fp, Cached: cached})
}

func (s *Server) cacheStats(c *gin.Context) {
	n, err := s.resolver.Cache().Len(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": n, "ttl": s.resolver.Cache().TTL().String()})
}

// statusFor maps a resolution error to an HTTP status.
func statusFor(err error) int {
	var geoErr *GeocodingError

	switch ErrorKind(err) {
	case "input":
		return http.StatusBadRequest
	case "undetermined", "invalid_coordinates":
		return http.StatusUnprocessableEntity
	case "geocoding":
		if errors.As(err, &geoErr) && geoErr.Type == ErrorTypeNotFound {
			return http.StatusNotFound
		}

		return http.StatusBadGateway
	case "extraction":
		return http.StatusBadGateway
	case "canceled":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
