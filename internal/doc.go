// Package internal documents the eventdesk client internals.
//
// The internal tree is organized by responsibility:
// - pipeline: the single HTTP path to the backend (auth header, error
//   classification, forced logout)
// - session, tokenstore: sign-in state and where it is kept
// - eventsapi, domain: typed resource calls and the models they exchange
// - auth, config, metrics, telemetry, sanitize, validation: shared infrastructure
// - testauth, testbackend: test-only token issuer and fake backend
//
// Code in internal/ is not meant for external import.
package internal
