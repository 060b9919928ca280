package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
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

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
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
			Handler:           newRouter(ctx, env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownSecs)*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the API routes. Document runs execute asynchronously
// against the server's base context, so an upload survives its request
// being closed; clients poll the run id for progress.
func newRouter(baseCtx context.Context, env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireOwner)

		r.Post("/documents", func(w http.ResponseWriter, req *http.Request) {
			owner := req.Header.Get("X-User-ID")

			maxBytes := int64(cfg.Server.MaxUploadMB) << 20
			req.Body = http.MaxBytesReader(w, req.Body, maxBytes)
			if err := req.ParseMultipartForm(maxBytes); err != nil {
				writeError(w, http.StatusBadRequest, "invalid multipart body")
				return
			}
			file, header, err := req.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "file field is required")
				return
			}
			defer file.Close()

			data, err := io.ReadAll(file)
			if err != nil {
				writeError(w, http.StatusBadRequest, "read upload")
				return
			}

			doc := model.Document{
				Name:     header.Filename,
				MimeType: header.Header.Get("Content-Type"),
				Data:     data,
			}

			run, err := env.Store.CreateRun(req.Context(), owner, doc.Name)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "create run")
				return
			}

			go func() {
				if _, err := env.Pipeline.RunExisting(baseCtx, run, owner, doc); err != nil {
					zap.L().Error("async run failed",
						zap.String("run_id", run.ID),
						zap.Error(err),
					)
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]any{
				"run_id": run.ID,
				"status": run.Status,
			})
		})

		r.Post("/credentials", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Service string `json:"service"`
				Key     string `json:"key"`
				Secret  string `json:"secret"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Secret == "" {
				writeError(w, http.StatusBadRequest, "secret is required")
				return
			}
			if body.Service == "" {
				body.Service = "gemini"
			}
			if body.Key == "" {
				body.Key = "api_key"
			}

			err := env.Store.SetCredential(req.Context(),
				req.Header.Get("X-User-ID"), body.Service, body.Key, body.Secret)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "store credential")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := env.Store.ListRuns(req.Context(), store.RunFilter{
				OwnerUserID: req.Header.Get("X-User-ID"),
				Status:      model.RunStatus(req.URL.Query().Get("status")),
				Limit:       100,
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, "list runs")
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeStoreError(w, err, "get run")
				return
			}
			if run.OwnerUserID != req.Header.Get("X-User-ID") {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/contacts", func(w http.ResponseWriter, req *http.Request) {
			contacts, err := env.Store.ListContacts(req.Context(), req.Header.Get("X-User-ID"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "list contacts")
				return
			}
			writeJSON(w, http.StatusOK, contacts)
		})

		r.Get("/contacts/{id}", func(w http.ResponseWriter, req *http.Request) {
			contact, err := env.Store.GetContact(req.Context(),
				req.Header.Get("X-User-ID"), chi.URLParam(req, "id"))
			if err != nil {
				writeStoreError(w, err, "get contact")
				return
			}
			writeJSON(w, http.StatusOK, contact)
		})

		r.Delete("/contacts/{id}", func(w http.ResponseWriter, req *http.Request) {
			err := env.Store.DeleteContact(req.Context(),
				req.Header.Get("X-User-ID"), chi.URLParam(req, "id"))
			if err != nil {
				writeStoreError(w, err, "delete contact")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// requireOwner rejects API requests without an X-User-ID header. Auth
// proper is the fronting proxy's job.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("X-User-ID") == "" {
			writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
			return
		}
		next.ServeHTTP(w, req)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, msg)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
