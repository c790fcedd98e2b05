package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=3000"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`

	// DatabaseDSN selects Postgres storage. Empty means the embedded Badger
	// store at BadgerFilepath.
	DatabaseDSN    string `env:"DATABASE_DSN"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/pairchat"`

	LogLevel string `env:"LOG_LEVEL,default=info"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=75s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PersistTimeout       time.Duration `env:"PERSIST_TIMEOUT,default=5s"`

	// CensoredWords is a comma separated list. Empty disables moderation.
	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
