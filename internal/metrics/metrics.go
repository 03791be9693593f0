// Package metrics содержит prometheus-метрики сервиса аутентификации.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор счетчиков сервиса.
type Metrics struct {
	signUps            *prometheus.CounterVec
	signIns            *prometheus.CounterVec
	verificationEmails *prometheus.CounterVec
	sessionLookups     *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		signUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "sign_ups_total",
			Help:      "Email and password registrations by result.",
		}, []string{"result"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "sign_ins_total",
			Help:      "Email and password sign-ins by result.",
		}, []string{"result"}),
		verificationEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "verification_emails_total",
			Help:      "Verification emails by delivery result.",
		}, []string{"result"}),
		sessionLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "session_lookups_total",
			Help:      "Session lookups by source (cache, db, miss).",
		}, []string{"source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "auth",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.signUps, m.signIns, m.verificationEmails, m.sessionLookups, m.httpRequests, m.httpDuration)
	return m
}

// SignUp учитывает регистрацию.
func (m *Metrics) SignUp(result string) { m.signUps.WithLabelValues(result).Inc() }

// SignIn учитывает вход.
func (m *Metrics) SignIn(result string) { m.signIns.WithLabelValues(result).Inc() }

// VerificationEmail учитывает исход отправки письма подтверждения.
func (m *Metrics) VerificationEmail(result string) { m.verificationEmails.WithLabelValues(result).Inc() }

// SessionLookup учитывает источник найденной сессии.
func (m *Metrics) SessionLookup(source string) { m.sessionLookups.WithLabelValues(source).Inc() }

// Middleware считает запросы и их длительность.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
