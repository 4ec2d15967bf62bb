package internal

import "github.com/starford/noteagator/internal/render"

// Option is a functional option for configuring the serve runtime.
type Option func(*application)

type application struct {
	config    *Config
	base      string
	printMode render.Mode
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithBase sets the notebook base directory to serve.
func WithBase(base string) Option {
	return func(a *application) {
		a.base = base
	}
}

// WithPrintMode sets the saved print mode served notes fall back to.
func WithPrintMode(mode render.Mode) Option {
	return func(a *application) {
		a.printMode = mode
	}
}
