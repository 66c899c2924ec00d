// Package server runs the temporary HTTP listener that completes a destination OAuth login.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] with method filtering and a [Middleware] stack. The first middleware added is
// the outermost. [Logging] records method, path and status but never the query string.
//
// # OAuth Callback
//
// [OAuthHandler] checks the state parameter, exchanges the authorization code and publishes exactly one
// [OAuthResult]. Later callbacks are rejected.
//
// [CallbackServer] binds the redirect address, waits for that result and shuts itself down. `dzx setup spotify`
// uses it to obtain the refresh token that the Spotify destination keeps renewing afterwards.
package server
