// Package di provides a lightweight wrapper around uber's dig dependency
// injection framework. It simplifies container setup and provides type-safe
// dependency retrieval with generics.
package di

import (
	"context"

	"go.uber.org/dig"
)

// Container defines a dependency injection container based on uber's dig.
// This interface allows for easy testing and mocking of the DI container.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error

	// Scope creates a scoped sub-container with its own set of values.
	Scope(name string, opts ...dig.ScopeOption) *dig.Scope
}

// MustGet returns an instance constructed via dependency injection or panics.
// This is a convenience function for retrieving a dependency from the
// container when you're certain it exists.
//
// Example:
//
//	authenticator := MustGet[*auth.Authenticator](container)
func MustGet[T any](container Container) (want T) {
	callback := func(got T) {
		want = got
	}
	if err := container.Invoke(callback); err != nil {
		panic(err)
	}
	return want
}

// New creates a new dependency injection container. The config path and the
// disable-auth switch set through options are registered as typed string/bool
// dependencies so constructors can declare them as plain parameters.
//
// Example:
//
//	container, err := New(
//	    WithConfigPath("azuread.yaml"),
//	    WithProviders(
//	        func(cfg *config.Config) *Thing { return NewThing(cfg) },
//	    ),
//	)
func New(opts ...Option) (Container, error) {
	o := options{
		ctx: context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	container := dig.New()
	if err := container.Provide(func() context.Context { return o.ctx }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() ConfigPath { return o.configPath }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() DisableAuth { return DisableAuth(o.disableAuth) }); err != nil {
		return nil, err
	}

	// Register the default constructors
	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	// Register all caller-provided constructors
	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideConfig,
	ProvideProvider,
	ProvideSessionKeyService,
	ProvideSessionKeys,
	ProvideAuthorizer,
	ProvideAuthenticator,
}
