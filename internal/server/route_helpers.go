package server

import (
	"maps"
	"net/http"
	"slices"
	"strings"
)

// RouteHandler is a function type for HTTP handlers.
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers.
type MethodRouter map[string]RouteHandler

// Allowed lists the routed methods, sorted, in Allow header form.
func (m MethodRouter) Allowed() string {
	return strings.Join(slices.Sorted(maps.Keys(m)), ", ")
}

// RouteByMethod dispatches on r.Method. Unrouted methods get a JSON 405 with
// an Allow header.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		w.Header().Set("Allow", routes.Allowed())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":"Method not allowed"}`))
		return
	}
	handler(w, r)
}
