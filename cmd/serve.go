package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  "Serves the analysis API. Sessions created over HTTP run the pipeline in the background; poll the session endpoint for status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return eris.Wrap(err, "serve")
		case <-ctx.Done():
		}

		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "shutdown")
		}
		return nil
	},
}

func newRouter(env *Env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", createSessionHandler(env))
		r.Get("/", listSessionsHandler(env))
		r.Get("/{id}", getSessionHandler(env))
		r.Get("/{id}/recommendations", listRecommendationsHandler(env))
		r.Get("/{id}/competitors", listCompetitorsHandler(env))
	})

	return r
}

type createSessionRequest struct {
	URL            string   `json:"url"`
	CompetitorURLs []string `json:"competitor_urls"`
	Keywords       []string `json:"keywords"`
}

func createSessionHandler(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		session, err := env.Store.CreateSession(r.Context(), req.URL, req.CompetitorURLs, req.Keywords)
		if err != nil {
			zap.L().Error("create session", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create session")
			return
		}

		// The pipeline outlives the request; detach from its cancellation.
		go func(s *model.AnalysisSession) {
			ctx := context.WithoutCancel(r.Context())
			if _, err := env.Pipeline.Run(ctx, s); err != nil {
				zap.L().Error("background pipeline run failed",
					zap.String("session_id", s.ID),
					zap.Error(err),
				)
			}
		}(session)

		writeJSON(w, http.StatusAccepted, session)
	}
}

func listSessionsHandler(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.SessionFilter{
			Status: model.SessionStatus(r.URL.Query().Get("status")),
			Limit:  50,
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			var limit int
			if _, err := fmt.Sscanf(v, "%d", &limit); err != nil || limit < 1 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			filter.Limit = limit
		}

		sessions, err := env.Store.ListSessions(r.Context(), filter)
		if err != nil {
			zap.L().Error("list sessions", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list sessions")
			return
		}
		if sessions == nil {
			sessions = []model.AnalysisSession{}
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func getSessionHandler(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := env.Store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			zap.L().Error("get session", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to get session")
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func listRecommendationsHandler(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := env.Store.ListRecommendations(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("list recommendations", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list recommendations")
			return
		}
		if recs == nil {
			recs = []model.TargetingRecommendation{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func listCompetitorsHandler(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analyses, err := env.Store.ListCompetitorAnalyses(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("list competitor analyses", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list competitor analyses")
			return
		}
		if analyses == nil {
			analyses = []model.CompetitorAnalysis{}
		}
		writeJSON(w, http.StatusOK, analyses)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
