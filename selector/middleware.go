package selector

import "net/http"

// ScopeHeader carries the request scope id on responses
const ScopeHeader = "X-CMS-Scope"

// Middleware attaches a fresh Scope to every request
func Middleware(sel *Selector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := NewScope(sel)
			w.Header().Set(ScopeHeader, scope.ID)
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}
