package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/caffeineduck/todobridge/hostfunc"
)

// maxCallBody bounds a call request; image data URLs are the largest payloads.
const maxCallBody = 32 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bridge over HTTP",
	Long: `Start an HTTP server exposing the bridge services.

Endpoints:
  POST /call/{name}   Call a service with a JSON object body, returns {"data":...}
  GET  /services      List service names
  GET  /health        Health check

With replication enabled the sync directory is watched while the server runs.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config: 127.0.0.1:4100)")
	rootCmd.AddCommand(serveCmd)
}

type callResponse struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func newRouter(registry *hostfunc.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/services", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, registry.List())
	})
	r.Post("/call/{name}", handleCall(registry, logger))
	return r
}

func handleCall(registry *hostfunc.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var args map[string]any
		body := http.MaxBytesReader(w, r.Body, maxCallBody)
		if err := json.NewDecoder(body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, callResponse{Error: "invalid json: " + err.Error()})
			return
		}

		result, err := registry.Call(r.Context(), name, args)
		switch {
		case errors.Is(err, hostfunc.ErrUnknownFunction):
			writeJSON(w, http.StatusNotFound, callResponse{Error: err.Error()})
		case err != nil:
			logger.Warn("call failed", "fn", name, "error", err)
			writeJSON(w, http.StatusUnprocessableEntity, callResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, callResponse{Data: result})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a.registry, a.logger.With("component", "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		fmt.Fprintf(cmd.ErrOrStderr(), "todobridge listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.replica != nil {
		g.Go(func() error {
			return a.replica.Watch(ctx)
		})
	}
	return g.Wait()
}
