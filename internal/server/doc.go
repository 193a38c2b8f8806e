// Package server provides HTTP routing, middleware, and the JSON lyrics endpoints served by `lrcx serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method patterns ("GET /lyrics") on [http.ServeMux],
// so the mux answers mismatched methods with 405 and fills [http.Request.PathValue].
//
// # Middleware
//
//   - [RequestID] propagates or generates an X-Request-ID
//   - [Logging] writes one structured log line per request
//   - [Recover] converts handler panics into 500 responses
//
// # Lyrics Handler
//
// [LyricsHandler] serves:
//
//	GET  /health        → liveness and provider name
//	GET  /lyrics        → stored payloads for ?artist=&title=
//	GET  /lyrics/{id}   → one stored payload
//	GET  /history       → recent resolutions (?status=&artist=&title=&limit=)
//	POST /resolve       → run a resolution for {"artist","title","no_cache"}
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
