package config

import (
	"os"
	"strconv"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig caches the habit list when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// AuthConfig holds the basic auth credentials. PasswordHash is a bcrypt hash
// and is consulted only when Password is empty.
type AuthConfig struct {
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// Enabled reports whether both sides of the credential pair are configured.
func (a AuthConfig) Enabled() bool {
	return a.User != "" && (a.Password != "" || a.PasswordHash != "")
}

// AppConfig 业务配置
type AppConfig struct {
	UserID   int    `yaml:"user_id"`
	Timezone string `yaml:"timezone"`
}

// OverrideDBFromEnv 从环境变量覆盖数据库配置
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		cfg.SSLMode = mode
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideServerFromEnv 从环境变量覆盖服务器配置
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

// OverrideAuthFromEnv reads BASIC_AUTH_USER / BASIC_AUTH_PASS / BASIC_AUTH_PASS_HASH.
func OverrideAuthFromEnv(cfg *AuthConfig) {
	if user := os.Getenv("BASIC_AUTH_USER"); user != "" {
		cfg.User = user
	}
	if pass := os.Getenv("BASIC_AUTH_PASS"); pass != "" {
		cfg.Password = pass
	}
	if hash := os.Getenv("BASIC_AUTH_PASS_HASH"); hash != "" {
		cfg.PasswordHash = hash
	}
}

// OverrideAppFromEnv 从环境变量覆盖业务配置
func OverrideAppFromEnv(cfg *AppConfig) {
	if id := os.Getenv("HABIT_USER_ID"); id != "" {
		if v, err := strconv.Atoi(id); err == nil {
			cfg.UserID = v
		}
	}
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
}
