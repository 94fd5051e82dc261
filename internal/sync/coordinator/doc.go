// Package coordinator schedules ingest work on cron specs.
//
// The coordinator owns two tasks: an update task that runs an update crawl of
// every configured registry, and a refresh task that rebuilds the common
// projects. When no refresh spec is configured the refresh runs after every
// update. Tasks never overlap; a tick that fires while a task is still running
// is skipped and logged.
package coordinator
