// Package server provides the optional admin HTTP server.
//
// Routes:
//
//	GET /metrics            Prometheus exposition
//	GET /health             liveness, always 200
//	GET /ready              readiness, 503 when a check fails
//	GET /version            build and backend information
//	GET /v1/names?prefix=   cached player names, optionally filtered by prefix
//	GET /v1/alts/{name}     alts of the most recently seen player with name
//
// Every response carries an X-Request-ID header. A client-supplied ID is
// echoed back, otherwise a UUID is generated. The ID is attached to the
// request context so log records written while serving it include it.
//
// The server does not handle signals. Start blocks until its context is
// cancelled and then shuts down gracefully:
//
//	srv := server.New(server.Config{ListenAddress: "127.0.0.1:9464"}, deps, logger)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
package server
