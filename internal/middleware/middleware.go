// Package middleware holds global and route-specific middleware: request
// ids, request-scoped logging, tracing, authentication (Clerk), role
// checks, rate limiting and the global error handler.
package middleware
