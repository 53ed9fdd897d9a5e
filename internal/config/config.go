package config

import (
	"fmt"
	"time"

	"habitgrid/pkg/config"
)

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	Redis  config.RedisConfig  `yaml:"redis"`
	Server config.ServerConfig `yaml:"server"`
	Auth   config.AuthConfig   `yaml:"auth"`
	App    AppConfig           `yaml:"app"`
}

type AppConfig struct {
	config.AppConfig `yaml:",inline"`
	UserEmail        string `yaml:"user_email"`
}

// Load reads configDir/base.yaml, the env overlay and secrets.env, then
// applies environment variable overrides.
func Load(env, configDir string) (*Config, error) {
	merged, err := config.LoadConfig(env, configDir)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	if err := config.Decode(merged, cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideAuthFromEnv(&cfg.Auth)
	config.OverrideAppFromEnv(&cfg.App.AppConfig)

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DB:     config.DBConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Server: config.ServerConfig{Port: ":8080"},
		App: AppConfig{
			AppConfig: config.AppConfig{UserID: 1, Timezone: "Local"},
			UserEmail: "me@local",
		},
	}
}

// Location resolves App.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app.timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
