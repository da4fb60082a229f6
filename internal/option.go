package internal

// Option configures the application before Run starts it.
type Option func(*application)

// application collects the pieces assembled by options. Today that is
// only the configuration.
type application struct {
	config *Config
}

// WithConfig supplies the loaded configuration to Run.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
