package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SERVER_ADDR is the host:port of a running relay, e.g. "localhost:8080".
	// Scenarios skip when it is empty.
	ServerAddr string `envconfig:"SERVER_ADDR"`
	// E2E_DEBUG_JSON allows dumping full frame bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
