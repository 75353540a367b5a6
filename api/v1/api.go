package v1

import (
	"net/http"

	"github.com/avosk/shelfmark/config"
	"github.com/avosk/shelfmark/library"
	"github.com/avosk/shelfmark/middleware"
	"github.com/avosk/shelfmark/store"
	"github.com/avosk/shelfmark/worker"
	"github.com/gorilla/mux"
)

type Handler struct {
	store       *store.Store
	service     *library.Service
	refreshPool worker.WorkPool
	// For JWT
	secret string
}

// NewHandler is a constructor for the v1.Handler
func NewHandler(store *store.Store, service *library.Service, refreshPool worker.WorkPool, secret string) *Handler {
	return &Handler{
		store:       store,
		service:     service,
		refreshPool: refreshPool,
		secret:      secret,
	}
}

func Server(router *mux.Router, handler *Handler) {
	sr := router.PathPrefix("/api/v1").Subrouter()
	middleware := middleware.NewMiddleware()
	sr.Use(middleware.HandleCORS)
	sr.Use(middleware.LoggingRequest)

	if config.AuthEnabled() {
		sr.Use(NewAuthInterceptor(handler.secret).AuthenticationInterceptor)
	}
	sr.Methods(http.MethodOptions)

	sr.HandleFunc("/auth/signin", handler.signIn).Methods(http.MethodPost)

	sr.HandleFunc("/books", handler.searchBooks).Methods(http.MethodGet)
	sr.HandleFunc("/books", handler.addBook).Methods(http.MethodPost)
	sr.HandleFunc("/books/refresh", handler.refreshAllBooks).Methods(http.MethodPost)
	sr.HandleFunc("/books/{id:[0-9]+}", handler.getBook).Methods(http.MethodGet)
	sr.HandleFunc("/books/{id:[0-9]+}", handler.deleteBook).Methods(http.MethodDelete)
	sr.HandleFunc("/books/{id:[0-9]+}/progress", handler.updateProgress).Methods(http.MethodPost, http.MethodPut)
	sr.HandleFunc("/books/{id:[0-9]+}/reset", handler.resetProgress).Methods(http.MethodPost)
	sr.HandleFunc("/books/{id:[0-9]+}/metrics", handler.bookMetrics).Methods(http.MethodGet)
	sr.HandleFunc("/books/{id:[0-9]+}/refresh", handler.refreshBook).Methods(http.MethodPost)

	sr.HandleFunc("/lookup", handler.lookupMetadata).Methods(http.MethodGet)
	sr.HandleFunc("/stats", handler.stats).Methods(http.MethodGet)
}
