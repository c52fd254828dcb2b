// Package web serves the Zakat calculator over a small JSON REST API.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/zakat/internal/domain"
	"github.com/vadiminshakov/zakat/internal/services"
)

const (
	headerContentType = "Content-Type"
	applicationJSON   = "application/json"
	maxBodySize       = 1 << 16
)

var allowedCORSHeaders = []string{"Accept", "Accept-Language", "Content-Language", "Origin", headerContentType}

var errPaymentsDisabled = errors.New("payments are not configured: set a beneficiary")

type zakatService interface {
	Calculate(ctx context.Context, req services.Request) (*services.Report, error)
	Hawl(ctx context.Context, address string) (domain.HawlEstimate, error)
	Nisab(ctx context.Context) (services.NisabReport, error)
}

// PaymentBuilder prepares unsigned payment calls.
type PaymentBuilder interface {
	Build(amountUSD decimal.Decimal) (*domain.PaymentCall, error)
}

// ErrorResponse body of every non-2xx answer.
type ErrorResponse struct {
	Message string `json:"message"`
}

// PaymentRequest body of POST /api/v1/payment.
type PaymentRequest struct {
	AmountUSD decimal.Decimal `json:"amount_usd"`
}

// Server exposes the calculator under /api/v1.
type Server struct {
	Addr     string
	svc      zakatService
	payments PaymentBuilder
	l        *zap.Logger
}

// NewServer creates a new web server instance. payments may be nil, in which
// case the payment route answers 503.
func NewServer(addr string, svc zakatService, payments PaymentBuilder, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Addr: addr, svc: svc, payments: payments, l: l}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(handlers.CORS(
		handlers.AllowedHeaders(allowedCORSHeaders),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	))
	api.HandleFunc("/zakat/{address}", s.handleZakat).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/hawl/{address}", s.handleHawl).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/nisab", s.handleNisab).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/payment", s.handlePayment).Methods(http.MethodPost, http.MethodOptions)

	return http.MaxBytesHandler(r, maxBodySize)
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("api listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Warn("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("http (acme) server error", zap.Error(err))
		}
	}()

	s.l.Info("api listening with automatic TLS", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleZakat(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	debts, err := parseDecimalParam(query.Get("debts"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid parameter %q: %w", "debts", err))
		return
	}
	nisab, err := parseDecimalParam(query.Get("nisab"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid parameter %q: %w", "nisab", err))
		return
	}

	report, err := s.svc.Calculate(r.Context(), services.Request{
		Address: mux.Vars(r)["address"],
		Debts:   debts,
		Nisab:   nisab,
		Basis:   services.Basis(query.Get("basis")),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHawl(w http.ResponseWriter, r *http.Request) {
	estimate, err := s.svc.Hawl(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, estimate)
}

func (s *Server) handleNisab(w http.ResponseWriter, r *http.Request) {
	nisab, err := s.svc.Nisab(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nisab)
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	if s.payments == nil {
		s.writeError(w, http.StatusServiceUnavailable, errPaymentsDisabled)
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	call, err := s.payments.Build(req.AmountUSD)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, call)
}

func parseDecimalParam(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNothingToPay):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.l.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set(headerContentType, applicationJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.l.Warn("failed to encode response", zap.Error(err))
	}
}
