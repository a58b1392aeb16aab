package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/YaleSpinup/bugsnag-mini/eventreporter"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// exceptionRequest is a caught exception relayed from a host
type exceptionRequest struct {
	ErrorClass string                     `json:"errorClass"`
	Message    string                     `json:"message"`
	File       string                     `json:"file"`
	Line       int                        `json:"line"`
	Trace      []eventreporter.TraceFrame `json:"trace"`
}

// errorRequest is a runtime error relayed from a host's error handler
type errorRequest struct {
	Severity eventreporter.Severity `json:"severity"`
	Message  string                 `json:"message"`
	File     string                 `json:"file"`
	Line     int                    `json:"line"`
}

// server relays host hooks to the hook adapter
type server struct {
	router *mux.Router
	hooks  *eventreporter.HookAdapter
	token  string
}

// capture records the report made while handling a single request
type capture struct {
	eventreporter.ErrorReporter
	called  bool
	payload *eventreporter.Payload
	err     error
}

func (c *capture) Report(ctx context.Context, err error) (*eventreporter.Payload, error) {
	c.called = true
	c.payload, c.err = c.ErrorReporter.Report(ctx, err)
	return c.payload, c.err
}

func newServer(hooks *eventreporter.HookAdapter, token string) *server {
	s := &server{
		router: mux.NewRouter(),
		hooks:  hooks,
		token:  token,
	}
	s.routes()
	return s
}

func (s *server) routes() {
	s.router.Use(requestID)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1/bugsnag").Subrouter()
	api.HandleFunc("/ping", s.pingHandler).Methods(http.MethodGet)

	hooks := api.NewRoute().Subrouter()
	hooks.Use(s.authenticate)
	hooks.HandleFunc("/exception", s.exceptionHandler).Methods(http.MethodPost)
	hooks.HandleFunc("/error", s.errorHandler).Methods(http.MethodPost)
	hooks.HandleFunc("/shutdown", s.shutdownHandler).Methods(http.MethodPost)
}

// handler wraps the router so that a panic in the relay itself is reported
// and turned into a 500
func (s *server) handler(accessLog io.Writer) http.Handler {
	return handlers.RecoveryHandler(handlers.RecoveryLogger(log.StandardLogger()))(
		handlers.LoggingHandler(accessLog, s.reportPanics(s.router)),
	)
}

func (s *server) reportPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer s.hooks.Recover(r.Context())
		next.ServeHTTP(w, r)
	})
}

// requestID tags each request with an id, reusing the caller's if it sent one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		log.WithField("request_id", id).Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// authenticate checks X-Auth-Token against the configured hash when there is one
func (s *server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			if err := validateToken(s.token, r.Header.Get("X-Auth-Token")); err != nil {
				log.Warnf("Failed to validate token for request %s: %s", r.URL, err)
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte{})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) pingHandler(w http.ResponseWriter, r *http.Request) {
	log.Debug("Got ping request, responding pong.")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (s *server) exceptionHandler(w http.ResponseWriter, r *http.Request) {
	var req exceptionRequest
	if !decode(w, r, &req) {
		return
	}

	if req.ErrorClass == "" {
		req.ErrorClass = "Exception"
	}

	hooks, c := s.capturingHooks()
	hooks.OnException(r.Context(), &eventreporter.HostError{
		ErrorClass: req.ErrorClass,
		Message:    req.Message,
		Filename:   req.File,
		Lineno:     req.Line,
		Frames:     req.Trace,
	})
	respond(w, c)
}

// errorHandler runs the error hook and, when it raises, hands the raised
// exception to the exception hook the way the host runtime would
func (s *server) errorHandler(w http.ResponseWriter, r *http.Request) {
	var req errorRequest
	if !decode(w, r, &req) {
		return
	}

	hooks, c := s.capturingHooks()
	if raised := hooks.OnError(r.Context(), req.Severity, req.Message, req.File, req.Line); raised != nil {
		hooks.OnException(r.Context(), raised)
	}
	respond(w, c)
}

func (s *server) shutdownHandler(w http.ResponseWriter, r *http.Request) {
	var last eventreporter.LastError
	if !decode(w, r, &last) {
		return
	}

	hooks, c := s.capturingHooks()
	hooks.OnShutdown(r.Context(), &last)
	respond(w, c)
}

func (s *server) capturingHooks() (*eventreporter.HookAdapter, *capture) {
	c := &capture{ErrorReporter: s.hooks.Reporter}
	hooks := *s.hooks
	hooks.Reporter = c
	return &hooks, c
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warnf("Failed to decode request body for %s: %s", r.URL, err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid request body"))
		return false
	}
	return true
}

// respond writes 204 when nothing was reported, 500 when the report couldn't
// be attempted and 202 with the payload otherwise
func respond(w http.ResponseWriter, c *capture) {
	if !c.called {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if c.err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(c.err.Error()))
		return
	}

	body, err := json.Marshal(c.payload)
	if err != nil {
		log.Errorf("Failed to marshal payload for response: %s", err)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write(body)
}

// startHTTPServer starts the relay listening on the configured address
func startHTTPServer(listen string, s *server, accessLog io.Writer) *http.Server {
	srv := &http.Server{
		Handler:      s.handler(accessLog),
		Addr:         listen,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  30 * time.Second,
	}

	go func() {
		log.Infof("Starting listener on %s", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Httpserver: ListenAndServe() error: %s", err)
		}
	}()

	return srv
}
