// Package server runs the HTTP side of eventhub: a Gin engine served over
// HTTP/1.1 and h2c, wrapped in a net/http middleware stack so long-lived
// event streams get the same recovery, request IDs, logging and metrics as
// ordinary requests.
//
// # Middleware
//
// server/middleware provides Recovery, RequestID, RequestLogger, Metrics,
// CORS and BodySizeLimit, installed by ApplyMiddleware, plus RateLimit,
// which routes opt into through RateLimited.
//
// # Endpoints
//
// RegisterDefaultEndpoints adds the operational routes from server/endpoint:
//
//   - /health: aggregated component health
//   - /alive: liveness probe
//   - /ready: readiness probe
//   - /info: build and runtime information
//   - /metrics: runtime and application statistics as JSON
package server
