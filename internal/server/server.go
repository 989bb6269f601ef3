// Package server exposes the simulation, sensitivity and forecast
// engines over HTTP and WebSocket. The server is stateless: every
// request carries its own portfolio and settings, and nothing is
// persisted between calls.
package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/venturelab/fundsim-go/pkg/marketdata"
)

// visitorTTL is how long an idle client IP keeps its rate limiter.
const visitorTTL = 3 * time.Minute

// Config bounds the work a single request may ask for and the clients
// allowed to ask for it.
type Config struct {
	// AllowedOrigins is the CORS origin list; "*" allows any origin.
	AllowedOrigins []string

	// Workers is the goroutine fan-out for simulation trials.
	Workers int

	// MaxTrials caps per-request trial counts. Zero means unbounded.
	MaxTrials int

	// MaxTargets caps sensitivity target and forecast scenario list
	// lengths. Zero means unbounded.
	MaxTargets int

	// RateRPS and RateBurst throttle requests per client IP. A
	// non-positive rate disables throttling.
	RateRPS   float64
	RateBurst int
}

// Server wires the engines, the market data client and the HTTP
// middleware stack into a single handler.
type Server struct {
	cfg      Config
	log      *zap.Logger
	market   *marketdata.Client
	metrics  *metrics
	handler  http.Handler
	upgrader websocket.Upgrader
	started  time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// visitor tracks one client IP's rate limiter.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New assembles the HTTP stack: routing, CORS, per-IP rate limiting,
// request logging and Prometheus metrics. market may be nil, which
// turns the market data endpoint into a 503.
func New(cfg Config, log *zap.Logger, market *marketdata.Client) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		log:      log,
		market:   market,
		metrics:  newMetrics(reg),
		started:  time.Now(),
		visitors: make(map[string]*visitor),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/simulate", s.instrument("simulate", s.handleSimulate)).Methods(http.MethodPost)
	r.HandleFunc("/api/sensitivity", s.instrument("sensitivity", s.handleSensitivity)).Methods(http.MethodPost)
	r.HandleFunc("/api/forecast", s.instrument("forecast", s.handleForecast)).Methods(http.MethodPost)
	r.HandleFunc("/api/marketdata", s.instrument("marketdata", s.handleMarketData)).Methods(http.MethodGet)
	r.HandleFunc("/ws/simulate", s.handleSimulateStream).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.Use(s.recoverMiddleware)
	r.Use(s.rateLimitMiddleware)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// instrument wraps a handler with request logging and metrics.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		elapsed := time.Since(start)

		s.metrics.requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		s.metrics.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
		s.log.Info("request",
			zap.String("endpoint", endpoint),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// statusRecorder captures the response code for logs and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				s.writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.cfg.RateRPS <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.limiterFor(ip).Allow() {
			s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiterFor returns the rate limiter for an IP, creating one on first
// sight. Idle visitors are pruned inline; there is no background
// sweeper.
func (s *Server) limiterFor(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for addr, v := range s.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(s.visitors, addr)
		}
	}

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.cfg.RateRPS), s.cfg.RateBurst)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// originAllowed mirrors the CORS origin list for websocket upgrades.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
