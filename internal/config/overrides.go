package config

// Overrides replaces individual environment settings, typically from
// command-line flags. Empty fields leave the underlying value in place.
type Overrides struct {
	Port     string
	LogLevel string
	Env      string
}

type overriddenConfig struct {
	Config
	overrides Overrides
}

func WithOverrides(c Config, overrides Overrides) Config {
	return overriddenConfig{Config: c, overrides: overrides}
}

func (c overriddenConfig) GetPort() string {
	if c.overrides.Port != "" {
		return listenAddr(c.overrides.Port)
	}
	return c.Config.GetPort()
}

func (c overriddenConfig) GetLogLevel() string {
	if c.overrides.LogLevel != "" {
		return c.overrides.LogLevel
	}
	return c.Config.GetLogLevel()
}

func (c overriddenConfig) GetEnv() string {
	if c.overrides.Env != "" {
		return c.overrides.Env
	}
	return c.Config.GetEnv()
}
