package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env     string `env:"env" env-default:"local"`
	Server  Server
	Backend Backend
	Poll    Poll
}

type Server struct {
	Host        string        `env:"host" env-default:"localhost"`
	Port        string        `env:"port" env-default:"8080"`
	Timeout     time.Duration `env:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `env:"idle_timeout" env-default:"30s"`
}

type Backend struct {
	BaseURL string        `env:"backend_url" env-default:"http://localhost:8000"`
	Timeout time.Duration `env:"backend_timeout" env-default:"10s"`
}

type Poll struct {
	Interval time.Duration `env:"poll_interval" env-default:"2s"`
}

const configPath = "config/local.env"

func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("cannot load env file: %w", err)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
