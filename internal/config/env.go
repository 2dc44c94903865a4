// Package config defines environment configuration structs and loaders.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	EngineEnvConfig
	AssemblyAPIEnvConfig
	ServerEnvConfig
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EngineEnvConfig holds cross-validation engine defaults.
type EngineEnvConfig struct {
	Splits      int     `env:"ENGINE_SPLITS" envDefault:"10"`
	TrainRatio  float64 `env:"ENGINE_TRAIN_RATIO" envDefault:"0.9"`
	Seed        uint64  `env:"ENGINE_SEED" envDefault:"42"`
	Parallelism int     `env:"ENGINE_PARALLELISM" envDefault:"1"`
	Environment string  `env:"ENVIRONMENT" envDefault:"dev"`
}

// AssemblyAPIEnvConfig configures assembly store access.
type AssemblyAPIEnvConfig struct {
	AssemblyAPIUrl string        `env:"ASSEMBLY_API_URL" envDefault:"http://localhost:5005"`
	ClientTimeout  time.Duration `env:"ASSEMBLY_CLIENT_TIMEOUT" envDefault:"30s"`
}

// ServerEnvConfig configures the evaluation service.
type ServerEnvConfig struct {
	Address       string `env:"SCOREAPI_IP" envDefault:"127.0.0.1"`
	Port          int    `env:"SCOREAPI_PORT" envDefault:"8080"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT" envDefault:"16777216"`
}
