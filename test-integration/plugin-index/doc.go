// Package integration runs the ingest, refresh and search path end to end
// against Postgres in a container and fake registry APIs.
package integration
