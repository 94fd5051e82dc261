// Package sources adapts the three public plugin registries to one shape.
//
// Each adapter wraps a paginate.Paginator with registry specific request
// construction and response parsing, converts raw listing entries into the
// per-source records persisted by the sync writer, and performs the secondary
// "latest version" lookup every registry requires.
//
// Supported registries:
//   - Spigot, through the Spiget API. Pages are numbered and progress is
//     reported in the X-Page-Index and X-Page-Count response headers.
//     Resource titles are free text and go through naming.Normalize.
//   - Modrinth. Pages use offset and limit with total_hits in the body. Search
//     hits lack the source URL, so every page is enriched with a bulk project
//     lookup.
//   - Hangar. Pages use offset and limit with pagination.count in the body. The
//     source URL is found among named links in the project settings.
//
// Conversion failures and secondary lookup failures are returned as *Error
// values. They concern a single item and never stop a crawl. Paging failures
// are returned as plain errors and end the crawl.
package sources
