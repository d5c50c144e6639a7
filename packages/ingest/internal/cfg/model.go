package cfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port uint16 `env:"PORT" envDefault:"3000"`

	ClickhouseURL      string `env:"CLICKHOUSE_URL,required,notEmpty"`
	ClickhouseUsername string `env:"CLICKHOUSE_USERNAME" envDefault:"default"`
	ClickhousePassword string `env:"CLICKHOUSE_PASSWORD"`

	// MaxAllowedTimestampSkewSeconds bounds how old the first event of a batch may be. Zero disables the check.
	MaxAllowedTimestampSkewSeconds uint32 `env:"MAX_ALLOWED_TIMESTAMP_SKEW" envDefault:"0"`

	// WebhookSecret enables signature verification when set.
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

func (c Config) MaxAllowedTimestampSkew() time.Duration {
	return time.Duration(c.MaxAllowedTimestampSkewSeconds) * time.Second
}

func Parse() (Config, error) {
	var config Config
	err := env.Parse(&config)

	return config, err
}
