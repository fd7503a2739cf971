package config

import (
	"errors"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds everything the server reads from the environment (or an
// optional yaml file for local development).
type Config struct {
	Port         string `yaml:"port" env:"PORT" env-default:"3001"`
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH" env-default:"./taskfuchs.db"`
	JWTSecret    string `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"development-secret-change-in-production"`
	AdminEmail   string `yaml:"admin_email" env:"ADMIN_EMAIL"`

	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     string `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUsername string `yaml:"smtp_username" env:"SMTP_USERNAME"`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	SMTPFrom     string `yaml:"smtp_from" env:"SMTP_FROM"`
}

// MustLoad reads the config from configPath, falling back to plain
// environment variables when the path is empty or the file is missing.
func MustLoad(configPath string) Config {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return cfg
		}
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}

	return cfg
}
