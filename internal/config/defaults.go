package config

const (
	defaultConfigPath     = "~/.config/releaseform/config.toml"
	projectConfigName     = "releaseform.toml"
	defaultStorageDir     = "~/.local/share/releaseform"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultTimeoutSeconds = 20
	defaultTheme          = "default"
	defaultVariant        = "light"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage: Storage{Dir: defaultStorageDir},
		API:     API{TimeoutSeconds: defaultTimeoutSeconds},
		Logging: Logging{Level: defaultLogLevel, Format: defaultLogFormat},
		Render:  Render{Theme: defaultTheme, Variant: defaultVariant},
	}
}
