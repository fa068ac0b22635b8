// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, body limits); AppConfig is everything specific to TeamForge. The
// struct is passed to most lifecycle hooks, so anything needed during
// startup, request handling, or shutdown belongs here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Auth configuration
	AuthSecret string // JWT signing secret (must be strong in production)

	// Realtime layer configuration
	RealtimeAllowAnonymous bool // Allow unauthenticated WebSocket connections (dev/test only)
}
