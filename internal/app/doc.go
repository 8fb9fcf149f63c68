// Package app wires the admissions dashboard together: configuration,
// telemetry, services, the chi router and the HTTP server lifecycle.
//
// # Initialization Flow
//
//  1. Initialize OpenTelemetry and the business metrics
//  2. Create the admissions, health and export services
//  3. Set up middleware and routes
//  4. Create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run stops on SIGINT, SIGTERM or context cancellation. In-flight requests
// get ShutdownTimeout to finish, then telemetry providers are flushed.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never calls
// os.Exit.
package app
