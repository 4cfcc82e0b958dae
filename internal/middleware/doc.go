// Package middleware holds the HTTP middleware of the web front end:
// request IDs, structured request logging, panic recovery, rate limiting
// and tracing.
package middleware
