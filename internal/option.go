package internal

// Option configures the application before Run wires it together.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies an already-loaded configuration, typically parsed
// from the YAML file the CLI points at.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
