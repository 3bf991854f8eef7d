package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router is a small method-aware mux with wildcard path segments.
// Routes register as METHOD:PATH; a "*" segment matches any one
// segment, a trailing "*" matches the remainder of the path.
type Router struct {
	mux    *http.ServeMux
	routes map[string]HandlerFunc // key = METHOD:PATH
	paths  map[string]bool        // registered path patterns
}

func New() *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
	}

	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		r.dispatch(lrw, req)

		log.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", lrw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})

	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	key := req.Method + ":" + req.URL.Path
	if h, ok := r.routes[key]; ok {
		h(w, req)
		return
	}

	if pattern, ok := r.bestMatch(req.Method, req.URL.Path); ok {
		r.routes[req.Method+":"+pattern](w, req)
		return
	}

	if r.paths[req.URL.Path] {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// bestMatch picks the matching wildcard pattern with the most literal
// segments, so overlapping routes resolve deterministically: a pattern
// like "/a/*/logs" always beats "/a/*" for "/a/x/logs" no matter the
// registration or map iteration order. Equal specificity falls back to
// lexical pattern order.
func (r *Router) bestMatch(method, path string) (string, bool) {
	best := ""
	bestLiterals := -1
	for pattern := range r.paths {
		if !strings.Contains(pattern, "*") || !matchWildcardRoute(path, pattern) {
			continue
		}
		if _, ok := r.routes[method+":"+pattern]; !ok {
			continue
		}
		literals := literalSegments(pattern)
		if literals > bestLiterals || (literals == bestLiterals && pattern < best) {
			best = pattern
			bestLiterals = literals
		}
	}
	return best, bestLiterals >= 0
}

func literalSegments(pattern string) int {
	n := 0
	for _, seg := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if seg != "*" {
			n++
		}
	}
	return n
}

// matchWildcardRoute checks a request path against a wildcard pattern
func matchWildcardRoute(requestPath, pattern string) bool {
	reqSegs := strings.Split(strings.Trim(requestPath, "/"), "/")
	patSegs := strings.Split(strings.Trim(pattern, "/"), "/")

	// Trailing "*" absorbs any number of remaining segments.
	if len(patSegs) > 0 && patSegs[len(patSegs)-1] == "*" && len(reqSegs) >= len(patSegs) {
		patSegs = patSegs[:len(patSegs)-1]
		reqSegs = reqSegs[:len(patSegs)]
	}

	if len(reqSegs) != len(patSegs) {
		return false
	}
	for i, seg := range patSegs {
		if seg == "*" {
			continue
		}
		if reqSegs[i] != seg {
			return false
		}
	}
	return true
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	r.routes[method+":"+path] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)    { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)   { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)    { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc)  { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) { r.register(http.MethodDelete, path, handler) }

// Routes exposes the route table for testing
func (r *Router) Routes() map[string]HandlerFunc { return r.routes }

// Paths exposes the registered path patterns for testing
func (r *Router) Paths() map[string]bool { return r.paths }

// Start runs the HTTP server on addr, blocking until it exits
func (r *Router) Start(addr string) {
	log.Info().Str("addr", addr).Msg("server started")
	if err := http.ListenAndServe(addr, r.mux); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// Handler returns the underlying mux, for test servers
func (r *Router) Handler() http.Handler { return r.mux }

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
