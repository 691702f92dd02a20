// Package catalog talks to external music catalogs. Every source satisfies
// the same contract: search never errors on "no results" (an empty slice is
// the signal), lookups return nil when the id is unknown, and each source
// enforces its own minimum inter-request interval so callers never add
// throttling of their own.
package catalog
