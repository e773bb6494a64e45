// Package constants holds the provider names accepted in configuration.
package constants

// Backend providers.
const (
	BackendProviderMemory   = "memory"
	BackendProviderFirebase = "firebase"
)

// Pub/Sub providers.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)
