// Package config loads typed configuration structs from environment
// variables, with .env support for local development.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// cache holds one parsed value per configuration type so each type is
	// loaded once for the process lifetime.
	cache = struct {
		mu     sync.RWMutex
		values map[string]any
	}{values: make(map[string]any)}

	dotenvOnce sync.Once
)

// Load parses environment variables into v based on `env` field tags.
// The first call loads a .env file if one exists; subsequent calls for the
// same type return the cached value.
//
//	type PipelineConfig struct {
//		MultiTenancy bool   `env:"MULTI_TENANCY_ENABLED" envDefault:"true"`
//		SigningKey   string `env:"AUTH_SIGNING_KEY,required"`
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// Missing .env is fine; real environments set variables directly.
		_ = godotenv.Load()
	})

	name := typeName[T]()

	cache.mu.RLock()
	cached, ok := cache.values[name]
	cache.mu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	// A concurrent loader may have won; keep its value so all callers see
	// one consistent configuration.
	if cached, ok := cache.values[name]; ok {
		*v = cached.(T)
		return nil
	}
	cache.values[name] = *v
	return nil
}

// MustLoad is Load for configuration the application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeName[T](), err))
	}
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
