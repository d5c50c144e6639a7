package cfg

import "github.com/caarlos0/env/v11"

type Config struct {
	Port uint16 `env:"PORT" envDefault:"3001"`

	ClickhouseURL      string `env:"CLICKHOUSE_URL,required,notEmpty"`
	ClickhouseUsername string `env:"CLICKHOUSE_USERNAME" envDefault:"default"`
	ClickhousePassword string `env:"CLICKHOUSE_PASSWORD"`
}

func Parse() (Config, error) {
	var config Config
	err := env.Parse(&config)

	return config, err
}
