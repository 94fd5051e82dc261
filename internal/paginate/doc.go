// Package paginate walks paginated registry listings under a request-rate quota.
//
// A Paginator is agnostic to how a registry pages its results. Each registry
// supplies a Strategy that knows how to advance a request cursor and whether a
// response reports further pages. Two traversal modes are offered:
//
//   - Sequential awaits page K before requesting page K+1. It is used when the
//     consumer may stop early, such as incremental update runs.
//   - ReadAhead keeps up to W requests in flight while still yielding pages in
//     cursor order. It is used for full crawls to hide network latency.
//
// Every underlying fetch first blocks on the injected Limiter. Any fetch error
// ends the sequence after yielding the error once.
package paginate
