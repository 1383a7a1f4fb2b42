// Package netmon watches connectivity and is the single writer of the
// store's offline flag.
//
// A Monitor prefers an EventSource (WebsocketSource in production) and falls
// back to probing the backend with a Prober every 12 seconds, each probe
// bounded by a 5 second timeout. Readings are deduplicated against the last
// dispatched value, so repeated identical events produce one SET_OFFLINE.
package netmon
