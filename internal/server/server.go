// Package server exposes a storage backend over HTTP.
//
// Each CRUD endpoint takes a JSON body and answers with an Output. Record
// level outcomes such as a missing key are relayed with HTTP 200 and
// ok=false. Rejected input answers 400 and storage failures answer 500.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/myuser/astrobase/internal/metrics"
	"github.com/myuser/astrobase/internal/sql"
	"github.com/myuser/astrobase/internal/storage"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-Id"

// maxBodySize bounds request bodies: a maximal key and value plus JSON framing.
const maxBodySize = MaxKeySize + MaxValueSize + 4096

// Key is the body of /get and /delete.
type Key struct {
	Key string `json:"key"`
}

// Pair is the body of /insert and /update.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Output is the answer to every operation. Info holds the returned value on
// success and the error text on failure.
type Output struct {
	OK   bool   `json:"ok"`
	Info string `json:"info"`
}

// Service routes HTTP requests onto a storage backend.
type Service struct {
	backend storage.Backend
	stats   *metrics.Stats
	logger  *log.Logger

	// mu is held shared by each backend call together with its counter
	// update, and exclusively while compaction resyncs the record count.
	mu sync.RWMutex
}

// New returns a Service serving backend and counting into stats.
func New(backend storage.Backend, stats *metrics.Stats, logger *log.Logger) *Service {
	return &Service{
		backend: backend,
		stats:   stats,
		logger:  logger,
	}
}

// Handler returns the HTTP routes of the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/get", s.handleGet)
	mux.HandleFunc("/insert", s.handleInsert)
	mux.HandleFunc("/delete", s.handleDelete)
	mux.HandleFunc("/update", s.handleUpdate)
	mux.HandleFunc("/execute", s.handleExecute)
	mux.HandleFunc("/metrics", s.stats.Registry().Handler)
	return withRequestID(mux)
}

type ctxKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func writeOutput(w http.ResponseWriter, status int, out Output) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(out)
}

func (s *Service) reject(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn().Str("request_id", requestID(r)).Str("path", r.URL.Path).Err(err).Msg("request rejected")
	writeOutput(w, status, Output{OK: false, Info: err.Error()})
}

// decode reads a JSON body into v. Only POST is accepted.
func decode(w http.ResponseWriter, r *http.Request, v any) (int, error) {
	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		return http.StatusBadRequest, errors.New("invalid json body")
	}
	return http.StatusOK, nil
}

// relay answers with the outcome of a backend call.
func (s *Service) relay(w http.ResponseWriter, r *http.Request, op, key, result string, err error) {
	ev := s.logger.Debug()
	status := http.StatusOK
	out := Output{OK: err == nil, Info: result}
	if err != nil {
		out.Info = err.Error()
		if !storage.IsRecordError(err) {
			status = http.StatusInternalServerError
			ev = s.logger.Error()
		}
	}
	ev.Str("request_id", requestID(r)).Str("op", op).Str("key", key).Bool("ok", out.OK).Err(err).Msg("request")
	writeOutput(w, status, out)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	var req Key
	if status, err := decode(w, r, &req); err != nil {
		s.reject(w, r, status, err)
		return
	}
	if err := validateKey(req.Key); err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}

	s.mu.RLock()
	value, err := s.backend.Get(req.Key)
	s.stats.Get(err == nil)
	s.mu.RUnlock()
	s.relay(w, r, "get", req.Key, value, err)
}

func (s *Service) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req Pair
	if status, err := decode(w, r, &req); err != nil {
		s.reject(w, r, status, err)
		return
	}
	if err := validatePair(req); err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}

	s.mu.RLock()
	err := s.backend.Insert(req.Key, req.Value)
	s.stats.Insert(err == nil)
	s.mu.RUnlock()
	s.relay(w, r, "insert", req.Key, "", err)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req Key
	if status, err := decode(w, r, &req); err != nil {
		s.reject(w, r, status, err)
		return
	}
	if err := validateKey(req.Key); err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}

	s.mu.RLock()
	value, err := s.backend.Delete(req.Key)
	s.stats.Delete(err == nil)
	s.mu.RUnlock()
	s.relay(w, r, "delete", req.Key, value, err)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req Pair
	if status, err := decode(w, r, &req); err != nil {
		s.reject(w, r, status, err)
		return
	}
	if err := validatePair(req); err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}

	s.mu.RLock()
	err := s.backend.Update(req.Key, req.Value)
	s.stats.Update(err == nil)
	s.mu.RUnlock()
	s.relay(w, r, "update", req.Key, "", err)
}

func validatePair(p Pair) error {
	if err := validateKey(p.Key); err != nil {
		return err
	}
	return validateValue(p.Value)
}

// handleExecute runs one SQL statement, taken from ?sql= or the raw body.
func (s *Service) handleExecute(w http.ResponseWriter, r *http.Request) {
	stmt := r.URL.Query().Get("sql")
	if stmt == "" && r.Method == http.MethodPost {
		buf := new(strings.Builder)
		if _, err := io.Copy(buf, http.MaxBytesReader(w, r.Body, maxBodySize)); err != nil {
			s.reject(w, r, http.StatusBadRequest, err)
			return
		}
		stmt = buf.String()
	}
	if strings.TrimSpace(stmt) == "" {
		s.reject(w, r, http.StatusBadRequest, ErrStatementEmpty)
		return
	}

	plan, err := sql.ParseToPlan(stmt)
	if err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}
	if err := validatePlan(plan); err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}

	s.mu.RLock()
	result, err := sql.Execute(plan, s.backend)
	ok := err == nil
	var key string
	switch n := plan.(type) {
	case *sql.GetNode:
		key = n.Key
		s.stats.Get(ok)
	case *sql.InsertNode:
		key = n.Key
		s.stats.Insert(ok)
	case *sql.UpdateNode:
		key = n.Key
		s.stats.Update(ok)
	case *sql.DeleteNode:
		key = n.Key
		s.stats.Delete(ok)
	}
	s.mu.RUnlock()
	s.relay(w, r, plan.Type().String(), key, result, err)
}

func validatePlan(plan sql.PlanNode) error {
	switch n := plan.(type) {
	case *sql.GetNode:
		return validateKey(n.Key)
	case *sql.DeleteNode:
		return validateKey(n.Key)
	case *sql.InsertNode:
		return validatePair(Pair{Key: n.Key, Value: n.Value})
	case *sql.UpdateNode:
		return validatePair(Pair{Key: n.Key, Value: n.Value})
	}
	return nil
}
