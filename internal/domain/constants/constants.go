// Package constants contains string identifiers shared across layers.
package constants

// Deployment environments.
const (
	EnvDevelop    = "develop"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// Event publisher providers selectable through pubsub.provider.
const (
	PubSubProviderInProcess = "inprocess"
	PubSubProviderAMQP      = "amqp"
	PubSubProviderGoogle    = "google"
	PubSubProviderWebhook   = "webhook"
)

// Context keys set by the auth middleware.
const (
	ContextKeyUserID = "userID"
	ContextKeyRoles  = "roles"
)
