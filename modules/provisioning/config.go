package provisioning

import "time"

// Config holds the module's operation-class limits.
// Entity setup is deliberately tight: it provisions real resources and a
// legitimate tenant performs it a handful of times.
type Config struct {
	EntitySetupLimit  int           `env:"PROVISIONING_ENTITY_SETUP_LIMIT" envDefault:"3"`
	EntitySetupWindow time.Duration `env:"PROVISIONING_ENTITY_SETUP_WINDOW" envDefault:"1h"`

	PresetCreateLimit  int           `env:"PROVISIONING_PRESET_CREATE_LIMIT" envDefault:"50"`
	PresetCreateWindow time.Duration `env:"PROVISIONING_PRESET_CREATE_WINDOW" envDefault:"1m"`

	// IdempotencyStaleAfter bounds how long an abandoned PENDING key blocks
	// retries before takeover.
	IdempotencyStaleAfter time.Duration `env:"PROVISIONING_IDEMPOTENCY_STALE_AFTER" envDefault:"15m"`
}
