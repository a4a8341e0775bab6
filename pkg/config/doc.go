// Package config provides application configuration management from environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	CONTRACTGUARD_HOST="0.0.0.0"
//	CONTRACTGUARD_PORT="8080"
//	CONTRACTGUARD_HEALTH_PORT="9090"
//	CONTRACTGUARD_READ_TIMEOUT="15s"
//	CONTRACTGUARD_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	CONTRACTGUARD_POSTGRES_URL="postgres://localhost/contractguard"
//	CONTRACTGUARD_POSTGRES_MAX_CONNS="25"
//
// Cache settings:
//
//	CONTRACTGUARD_CACHE_ENABLED="true"
//	CONTRACTGUARD_REDIS_URL="redis://localhost:6379/0"
//	CONTRACTGUARD_REPORT_TTL="15m"
//
// Observability settings:
//
//	CONTRACTGUARD_LOG_LEVEL="info"  # debug, info, warn, error
//	CONTRACTGUARD_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
