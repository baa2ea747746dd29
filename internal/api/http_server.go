package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"spotbnb/internal/config"
	"spotbnb/internal/logging"
	"spotbnb/internal/service"

	"github.com/rs/zerolog"
)

// Services bundles the business services behind the HTTP routes.
type Services struct {
	Auth     *service.AuthService
	Spots    *service.SpotService
	Reviews  *service.ReviewService
	Bookings *service.BookingService
}

// Pinger reports database reachability for /readyz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer exposes the REST API under /api plus liveness and readiness probes.
type HTTPServer struct {
	cfg      config.APIConfig
	authCfg  config.AuthConfig
	services Services
	db       Pinger
	limiter  *rateLimiter
	proxies  []netip.Prefix
	server   *http.Server
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, authCfg config.AuthConfig, services Services, db Pinger, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		authCfg:  authCfg,
		services: services,
		db:       db,
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   logging.Component(logger, "http"),
	}

	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		srv.logger.Warn().Err(err).Msg("Ignoring trusted proxies, X-Forwarded-For will not be read")
	} else {
		srv.proxies = proxies
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	handler := srv.requestLogger(srv.accessLog(srv.recoverer(srv.cors(srv.rateLimit(srv.restoreUser(mux))))))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", s.handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)

	s.handle(mux, "POST /api/users", s.handleSignup)
	s.handle(mux, "GET /api/session", s.handleGetSession)
	s.handle(mux, "POST /api/session", s.handleLogin)
	s.handle(mux, "DELETE /api/session", s.handleLogout)

	s.handle(mux, "GET /api/spots", s.handleListSpots)
	s.handle(mux, "GET /api/spots/current", s.requireAuth(s.handleListOwnedSpots))
	s.handle(mux, "GET /api/spots/{spotId}", s.handleGetSpot)
	s.handle(mux, "POST /api/spots", s.requireAuth(s.handleCreateSpot))
	s.handle(mux, "PUT /api/spots/{spotId}", s.requireAuth(s.handleUpdateSpot))
	s.handle(mux, "DELETE /api/spots/{spotId}", s.requireAuth(s.handleDeleteSpot))
	s.handle(mux, "POST /api/spots/{spotId}/images", s.requireAuth(s.handleAddSpotImage))

	s.handle(mux, "GET /api/spots/{spotId}/reviews", s.handleListSpotReviews)
	s.handle(mux, "POST /api/spots/{spotId}/reviews", s.requireAuth(s.handleCreateReview))
	s.handle(mux, "GET /api/reviews/current", s.requireAuth(s.handleListUserReviews))
	s.handle(mux, "PUT /api/reviews/{reviewId}", s.requireAuth(s.handleUpdateReview))
	s.handle(mux, "DELETE /api/reviews/{reviewId}", s.requireAuth(s.handleDeleteReview))
	s.handle(mux, "POST /api/reviews/{reviewId}/images", s.requireAuth(s.handleAddReviewImage))

	s.handle(mux, "GET /api/spots/{spotId}/bookings", s.requireAuth(s.handleListSpotBookings))
	s.handle(mux, "POST /api/spots/{spotId}/bookings", s.requireAuth(s.handleCreateBooking))
	s.handle(mux, "GET /api/spots/{spotId}/bookings/export", s.requireAuth(s.handleExportBookings))
	s.handle(mux, "GET /api/bookings/current", s.requireAuth(s.handleListUserBookings))
	s.handle(mux, "PUT /api/bookings/{bookingId}", s.requireAuth(s.handleUpdateBooking))
	s.handle(mux, "DELETE /api/bookings/{bookingId}", s.requireAuth(s.handleDeleteBooking))

	s.handle(mux, "DELETE /api/spot-images/{imageId}", s.requireAuth(s.handleDeleteSpotImage))
	s.handle(mux, "DELETE /api/review-images/{imageId}", s.requireAuth(s.handleDeleteReviewImage))
}

// handle registers h and records its pattern for the access log and metrics.
func (s *HTTPServer) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*statusRecorder); ok {
			rec.route = pattern
		}
		h(w, r)
	})
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		logging.FromContext(r.Context(), s.logger).Warn().Err(err).Msg("Readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
