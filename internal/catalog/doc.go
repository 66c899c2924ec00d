// Package catalog reads playlists from a source music catalog and writes them to a destination catalog.
//
// # Collaborators
//
// A [Source] exposes paginated listings: the first page of a listing is requested by container, every later page
// by the continuation token the previous page returned. A [Destination] exposes full-text search and the two
// mutations needed to build a playlist.
//
// # Pagination
//
// [Pager] drains a listing by following continuation tokens until a page comes back without one. Any page
// failure aborts the whole listing; partial results are never returned. A token that repeats is treated as a
// transport failure because the chain would never end.
//
// # Implementations
//
//   - [DeezerSource] reads public playlists from the Deezer API. Deezer reports many failures with status 200 and
//     an {"error": {...}} body; those are turned into [shared.ErrAPIRequest] errors.
//   - [SpotifyDestination] searches and writes through the Spotify Web API using an [oauth2.TokenSource].
//     Refreshed tokens are handed back to the caller so they can be persisted.
//   - [YouTubeDestination] talks to the ytmusicapi proxy server.
//
// # Error Handling
//
//   - [shared.ErrAPIRequest] : HTTP request failed or the remote reported an error
//   - [shared.ErrNotAuthenticated] : credentials missing or rejected (401/403)
//   - [shared.ErrServiceUnavailable] : rate limited or server error (429, 5xx)
//   - [shared.ErrPlaylistNotFound] : 404 on a playlist endpoint
//   - [shared.ErrPagination] : a page in a listing could not be fetched
package catalog
