package server

import "net/http"

// MiddlewareFunc is one layer of request handling. At some point during
// normal execution it must call next to hand the request to the following
// layer.
type MiddlewareFunc func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc)

// Middleware is an ordered pipeline of middleware functions executed before
// a final handler.
type Middleware struct {
	functions []MiddlewareFunc
}

func (m *Middleware) next(index int, handler http.Handler) http.HandlerFunc {
	if index < len(m.functions) {
		return func(w http.ResponseWriter, r *http.Request) {
			m.functions[index](w, r, m.next(index+1, handler))
		}
	}
	return handler.ServeHTTP
}

// Handler returns an http.Handler that runs the pipeline and then the given
// handler.
func (m *Middleware) Handler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.next(0, handler)(w, r)
	})
}

// MiddlewareMux is an http.ServeMux whose middleware pipeline executes
// before pattern-based multiplexing occurs, so it also covers requests that
// match no route.
type MiddlewareMux struct {
	http.ServeMux
	middleware Middleware
}

func NewMiddlewareMux(functions ...MiddlewareFunc) *MiddlewareMux {
	return &MiddlewareMux{middleware: Middleware{functions: functions}}
}

func (mux *MiddlewareMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux.middleware.Handler(&mux.ServeMux).ServeHTTP(w, r)
}
