package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	v1 "github.com/avosk/shelfmark/api/v1"
	"github.com/avosk/shelfmark/config"
	"github.com/avosk/shelfmark/library"
	"github.com/avosk/shelfmark/log"
	"github.com/avosk/shelfmark/store"
	"github.com/avosk/shelfmark/version"
	"github.com/avosk/shelfmark/worker"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StartServer starts the HTTP server
func StartServer(ctx context.Context, store *store.Store, service *library.Service, refreshPool worker.WorkPool) (*http.Server, error) {
	addr := config.Opts.Host
	port := config.Opts.Port
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", addr, port),
		Handler: setupHandler(store, service, refreshPool),
	}

	startHTTPServer(server)

	return server, nil
}

func startHTTPServer(server *http.Server) {
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			os.Exit(1)
		}
	}()
}

func setupHandler(store *store.Store, service *library.Service, refreshPool worker.WorkPool) http.Handler {
	router := mux.NewRouter()

	apiHandler := v1.NewHandler(store, service, refreshPool, config.Opts.JWTSecret)
	// Setup the API routes
	v1.Server(router, apiHandler)

	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, "Database Connection Error", http.StatusInternalServerError)
			return
		}

		w.Write([]byte("OK"))
	}).Name("healthcheck")

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(version.GetCurrentVersion()))
	}).Name("version")

	return router
}
