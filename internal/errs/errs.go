// Package errs defines the error shapes the API returns to clients.
//
// Every handler error ends up as an HTTPError (code, message, status and
// optional field errors) so clients receive consistent, actionable
// responses regardless of where the error started.
package errs
