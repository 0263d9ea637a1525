package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// newStaticRouter serves files under root for GET and HEAD. Other methods
// get 501 Not Implemented.
func newStaticRouter(root string) *mux.Router {
	r := mux.NewRouter()
	// http.FileServer does its own path cleaning and redirects.
	r.SkipClean(true)
	r.PathPrefix("/").
		Methods(http.MethodGet, http.MethodHead).
		Handler(http.FileServer(http.Dir(root)))
	r.MethodNotAllowedHandler = http.HandlerFunc(unsupportedMethod)
	return r
}

func unsupportedMethod(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("Unsupported method (%q)", r.Method), http.StatusNotImplemented)
}
