package di

import "context"

type ConfigPath string
type DisableAuth bool

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithContext sets the base context used by constructors that need one,
// typically carrying the process logger.
func WithContext(ctx context.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

// WithConfigPath sets the yaml configuration file the container loads.
func WithConfigPath(path string) Option {
	return func(opts *options) {
		opts.configPath = ConfigPath(path)
	}
}

// WithDisableAuth bypasses authentication for local development.
func WithDisableAuth(disable bool) Option {
	return func(opts *options) {
		opts.disableAuth = disable
	}
}

// WithProviders adds constructor functions to the dependency injection
// container. Each provider should be a constructor function that returns one
// or more values. Providers can declare dependencies as function parameters,
// which will be automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *Database { return &Database{} },
//	    func(db *Database) *Service { return &Service{DB: db} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	ctx         context.Context
	configPath  ConfigPath
	providers   []any
	disableAuth bool
}
