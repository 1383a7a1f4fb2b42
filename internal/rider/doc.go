// Package rider provides the HTTP client for the rider delivery API.
//
// A Client owns the bearer token and an *apierr.Handlers value, so callers
// inject one instance rather than configuring package state. Every request
// carries an X-Request-ID header and a 15 second default timeout.
//
// Failed requests are classified with apierr.Classify and routed to the
// registered handlers before the *apierr.Error is returned. Requests cut short
// by their own context skip the handlers. A successful response reports the
// network as reachable.
//
// Endpoints live under /api/v1/rider. List responses are accepted either as a
// bare array or wrapped in {"items": [...]}, and bodies wrapped in a
// {"data": ...} envelope are unwrapped.
//
// UploadProof streams the proof image as multipart/form-data (field "proof")
// and reports cumulative bytes as the body is read. The body reader checks
// the context on every read, so cancellation takes effect at the next chunk.
package rider
