// Package app wires the web front end: configuration, logging, telemetry,
// the report pipeline, the status hub and the HTTP server.
//
// The usual entry point is:
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down, cancels
// any background run at its next fund boundary and flushes telemetry. The
// package never calls os.Exit.
package app
