package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080" validate:"gt=0,lte=65535"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	GroupSeedFile  string `env:"GROUP_SEED_FILE"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s" validate:"gt=0"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=1m" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`

	MaxMessageLength int    `env:"MAX_MESSAGE_LENGTH,default=5000" validate:"gt=0"`
	HistoryLimit     int    `env:"HISTORY_LIMIT,default=50" validate:"gt=0"`
	PersistQueueSize int    `env:"PERSIST_QUEUE_SIZE,default=256" validate:"gt=0"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CharacterRune extracts the single-character censor replacement.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
