// Package server is the demo backend: it serves an editable user page,
// accepts inline updates and pushes confirmed changes to live clients.
package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/format"
	"github.com/matthewbaird/inplace/internal/livesync"
	"github.com/matthewbaird/inplace/internal/types"
)

// Config holds server configuration.
type Config struct {
	Port int
	DB   *sql.DB
	Log  zerolog.Logger
}

// Server holds the backend dependencies.
type Server struct {
	store     *Store
	validator *Validator
	hub       *Hub
	formats   *format.Registry
	log       zerolog.Logger
}

// New prepares the schema, seeds the demo user and returns a Server.
func New(ctx context.Context, db *sql.DB, log zerolog.Logger) (*Server, error) {
	store := NewStore(db)
	if err := store.CreateTable(ctx); err != nil {
		return nil, fmt.Errorf("creating attributes table: %w", err)
	}
	if err := store.Seed(ctx, UserModel, "1", DemoUser(time.Now())); err != nil {
		return nil, fmt.Errorf("seeding demo user: %w", err)
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		store:     store,
		validator: v,
		hub:       NewHub(log),
		formats:   format.DefaultRegistry(),
		log:       log,
	}, nil
}

// Hub returns the change broadcaster.
func (s *Server) Hub() *Hub { return s.hub }

// Routes returns the router with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(s.log), Logging(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/users/{id}", s.showUser)
	r.Put("/users/{id}", s.updateUser)
	r.Patch("/users/{id}", s.updateUser)
	r.Handle("/ws", s.hub)
	return r
}

// Run starts the HTTP server and shuts it down when ctx is done.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(ctx, cfg.DB, cfg.Log)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	cfg.Log.Info().Str("addr", addr).Msg("starting server")

	server := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) showUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	attrs, err := s.store.Get(r.Context(), UserModel, id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := renderUserPage(&buf, id, "/users/"+id, attrs, s.formats); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("rendering user page")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// updateUser accepts exactly one user[attr] form value. Validation failures
// answer 422 with a JSON array of messages.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), UserModel, id); err != nil {
		s.storeError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}

	var attribute, raw string
	n := 0
	for key, vs := range r.PostForm {
		if attr, ok := paramAttribute(key); ok && len(vs) > 0 {
			attribute, raw = attr, vs[0]
			n++
		}
	}
	if n != 1 {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "expected exactly one user[attribute] value")
		return
	}

	value, problems := s.validator.Validate(attribute, raw)
	if len(problems) > 0 {
		s.log.Info().Str("id", id).Str("attribute", attribute).Strs("errors", problems).Msg("update rejected")
		if keyedErrors[attribute] {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]map[string][]string{
				"errors": {attribute: bareMessages(attribute, problems)},
			})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, problems)
		return
	}

	confirmed := types.Some(value)
	if err := s.store.Set(r.Context(), UserModel, id, attribute, confirmed); err != nil {
		s.storeError(w, err)
		return
	}

	msg := livesync.Message{
		Object:    UserModel,
		ObjectID:  id,
		Attribute: attribute,
		Value:     confirmed,
		DisplayAs: displayAs(attribute, confirmed),
	}
	s.hub.Broadcast(msg)

	writeJSON(w, http.StatusOK, struct {
		Value     types.Value `json:"value"`
		DisplayAs *string     `json:"display_as,omitempty"`
	}{msg.Value, msg.DisplayAs})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	s.log.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// bareMessages drops the humanized attribute name the validator prefixes.
func bareMessages(attribute string, problems []string) []string {
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = strings.TrimPrefix(p, Humanize(attribute)+" ")
	}
	return out
}

// paramAttribute extracts attr from "user[attr]".
func paramAttribute(key string) (string, bool) {
	prefix := UserModel + "["
	if len(key) <= len(prefix)+1 || key[:len(prefix)] != prefix || key[len(key)-1] != ']' {
		return "", false
	}
	return key[len(prefix) : len(key)-1], true
}
