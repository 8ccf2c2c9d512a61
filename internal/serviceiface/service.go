// Package serviceiface defines the lifecycle contract the app manager
// drives. Everything long-running ships behind it: the rotating logger, the
// history and users HTTP services, the report cron, and the gateway proxy.
package serviceiface

// Service is started once at boot and stopped in reverse order on shutdown.
type Service interface {
	Name() string
	Start() error
	Stop() error
}
