// package server contains the local HTTP listener used to complete destination OAuth logins
package server

import (
	"net/http"
)

// Middleware decorates the callback handler. [Logging] is the only one dzx installs.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that owns a fixed set of paths, such as the
// redirect path of an OAuth client registration.
type Handler interface {
	http.Handler
	Routes() []string
}

var (
	_ Handler      = (*OAuthHandler)(nil)
	_ http.Handler = (*BasicRouter)(nil)
)

// Chain folds middleware into one, so Chain(a, b)(h) serves as a(b(h)).
func Chain(middleware ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middleware) - 1; i >= 0; i-- {
			next = middleware[i](next)
		}
		return next
	}
}
