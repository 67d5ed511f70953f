// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storeservice

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bureau-foundation/fieldreport/lib/codec"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
)

// maxRequestSize bounds request bodies. An append of a few hundred
// rows is well under this.
const maxRequestSize = 8 << 20

// Config configures a Server.
type Config struct {
	// Store is the backing store. Required.
	Store remotestore.Store

	// Token, when non-empty, is the bearer token every /v1 request
	// must present.
	Token string

	// Logger is required.
	Logger *slog.Logger
}

// Server serves a Store over HTTP.
type Server struct {
	store  remotestore.Store
	token  []byte
	logger *slog.Logger
}

// NewServer returns a server for config.
func NewServer(config Config) *Server {
	if config.Store == nil {
		panic("storeservice.Server: Store is required")
	}
	if config.Logger == nil {
		panic("storeservice.Server: Logger is required")
	}
	server := &Server{store: config.Store, logger: config.Logger}
	if config.Token != "" {
		server.token = []byte(config.Token)
	}
	return server
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeCBOR(w, http.StatusOK, healthResponse{Status: "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/tables", s.handleCreateTable)
		r.Get("/tables/{table}/rows", s.handleScan)
		r.Post("/tables/{table}/rows", s.handleAppend)
		r.Put("/tables/{table}/rows", s.handleUpdate)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(recorder, r)
		s.logger.Debug("store request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.Status(),
			"duration", time.Since(started),
		)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != nil {
			presented := []byte(bearerToken(r.Header.Get("Authorization")))
			if subtle.ConstantTimeCompare(presented, s.token) != 1 {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing or invalid bearer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	creator, ok := s.store.(remotestore.TableCreator)
	if !ok {
		writeError(w, http.StatusNotImplemented, codeUnsupported, "this store cannot create tables")
		return
	}
	var request createTableRequest
	if !s.decode(w, r, &request) {
		return
	}
	if strings.TrimSpace(request.Name) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "table name is required")
		return
	}
	if err := creator.CreateTable(r.Context(), request.Name, request.Columns); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("table created", "table", request.Name, "columns", len(request.Columns))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Scan(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if rows == nil {
		rows = []remotestore.Row{}
	}
	writeCBOR(w, http.StatusOK, rowsBody{Rows: rows})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var request rowsBody
	if !s.decode(w, r, &request) {
		return
	}
	if len(request.Rows) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "no rows to append")
		return
	}
	if err := s.store.Append(r.Context(), chi.URLParam(r, "table"), request.Rows...); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var request updateRequest
	if !s.decode(w, r, &request) {
		return
	}
	if request.KeyColumn < 0 || request.KeyColumn >= len(request.Row) {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			fmt.Sprintf("key column %d is outside a row of %d cells", request.KeyColumn, len(request.Row)))
		return
	}
	updated, err := s.store.Update(r.Context(), chi.URLParam(r, "table"), request.KeyColumn, request.Key, request.Row)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeCBOR(w, http.StatusOK, updateResponse{Updated: updated})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "reading request body: "+err.Error())
		return false
	}
	if err := codec.Unmarshal(data, v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "decoding request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, remotestore.ErrNoSuchTable) {
		writeError(w, http.StatusNotFound, codeNoSuchTable, err.Error())
		return
	}
	s.logger.Error("store operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeCBOR(w http.ResponseWriter, status int, payload any) {
	data, err := codec.Marshal(payload)
	if err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.ContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeCBOR(w, status, errorResponse{Code: code, Message: message})
}
