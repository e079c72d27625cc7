package store

import (
	"fmt"
	"sync"

	"github.com/marcol480/fink-broker/internal/core"
)

// Factory is the Strategy interface for creating store implementations.
// Each backend (DynamoDB, in-memory, ...) implements this interface to
// provide its own factory method.
type Factory interface {
	// Create creates a new store instance based on the provided configuration.
	Create(config Config) (core.Store, error)

	// Type returns the type identifier for this factory (e.g., "dynamodb").
	Type() string

	// Validate validates the configuration specific to this store type.
	Validate(config Config) error
}

// Config represents the configuration needed to create a store connection.
type Config struct {
	Type string

	// DynamoDB-specific fields.
	Region          string
	Endpoint        string // Optional, for LocalStack
	AccessKeyID     string // Optional, can use IAM role instead
	SecretAccessKey string // Optional, can use IAM role instead
}

var (
	// factoryRegistry stores all registered store factories.
	factoryRegistry = make(map[string]Factory)

	// registryMutex protects the registry from concurrent access.
	registryMutex sync.RWMutex
)

// RegisterFactory registers a store factory.
// This is called automatically by each implementation's init() function.
func RegisterFactory(factory Factory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}

	factoryRegistry[factory.Type()] = factory
}

// Create creates a store instance using the appropriate factory based on
// config.Type.
func Create(config Config) (core.Store, error) {
	if config.Type == "" {
		return nil, fmt.Errorf("store type is required")
	}

	registryMutex.RLock()
	factory, exists := factoryRegistry[config.Type]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}

	if err := factory.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", config.Type, err)
	}

	return factory.Create(config)
}

// RegisteredTypes returns a list of all registered store types.
func RegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	return types
}
