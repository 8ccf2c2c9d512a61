package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the gateway routes. Domain endpoints live in their own
// service processes and are reached through the reverse proxies.
func NewRouter() *mux.Router {
	router := mux.NewRouter()

	router.PathPrefix("/history/").Handler(createReverseProxy("http://localhost:5143"))
	router.PathPrefix("/users").Handler(createReverseProxy("http://localhost:5243"))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("API Gateway is healthy"))
	}).Methods("GET")

	return router
}
