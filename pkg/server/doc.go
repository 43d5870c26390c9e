// Package server exposes the variation enumerator over HTTP.
//
// Routes:
//
//	GET /v1/variations?budget=N&min=a,b,c,d,e&limit=K
//	GET /v1/count?budget=N&min=a,b,c,d,e
//	GET /healthz
//	GET /metrics
//
// The /v1 routes are rate limited and traced; every response carries an
// X-Request-ID header.
package server
