// Package config provides configuration management for AltDetector.
//
// Configuration is read from a YAML file, decoded over the defaults in
// defaults.go, validated, and then overridden from the environment.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("config.yml")                  // file only
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yml")  // file + env
//
// # Environment Variable Overrides
//
// Variables are prefixed with ALTDETECTOR_. For example:
//
//   - ALTDETECTOR_STORE_BACKEND overrides store.backend
//   - ALTDETECTOR_EXPIRATION_DAYS overrides expiration_days
//   - ALTDETECTOR_MYSQL_PASSWORD overrides store.mysql.password
//   - ALTDETECTOR_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// # Hot Reload
//
// A Watcher reloads the file when it changes and passes the new
// configuration to a callback. Only settings that are safe to swap at
// runtime should be applied from it: the retention window, SQL debug and
// the message templates.
//
// After a one-time conversion completes, MarkConverted resets convert_from
// to "none" in the file so the import does not run again.
package config
