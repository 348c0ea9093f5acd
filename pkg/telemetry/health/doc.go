// Package health provides liveness and readiness checks for the admin
// server.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("database", health.DatabaseCheck(store))
//	checker.RegisterCheck("workers", health.WorkerCheck(pool, queueSize))
//
//	router.Handle("/health", checker.LivenessHandler())
//	router.Handle("/ready", checker.ReadinessHandler())
//
// Liveness never touches the database. Readiness runs every check
// concurrently, each bounded by the checker's timeout, and answers 503 when
// any of them fails.
package health
