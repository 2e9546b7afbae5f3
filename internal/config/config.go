package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel       string `yaml:"log-level" env:"GOMOKU_LOG_LEVEL" env-default:"info"`
	TCPPort        string `yaml:"tcp-port" env:"GOMOKU_TCP_PORT" env-default:"547"`
	SocketPort     string `yaml:"ws-port" env:"GOMOKU_WS_PORT" env-default:"8080"`
	HTTPPort       string `yaml:"http-port" env:"GOMOKU_HTTP_PORT" env-default:"9090"`
	SendBuffer     int    `yaml:"send-buffer" env:"GOMOKU_SEND_BUFFER" env-default:"64"`
	MaxMessageSize int    `yaml:"max-message-size" env:"GOMOKU_MAX_MESSAGE_SIZE" env-default:"4096"`
	Redis          Redis  `yaml:"redis"`
}

type Redis struct {
	Enabled       bool          `yaml:"enabled" env:"GOMOKU_REDIS_ENABLED" env-default:"false"`
	Host          string        `yaml:"host" env:"GOMOKU_REDIS_HOST" env-default:"localhost"`
	Port          string        `yaml:"port" env:"GOMOKU_REDIS_PORT" env-default:"6379"`
	RecentResults int64         `yaml:"recent-results" env:"GOMOKU_REDIS_RECENT_RESULTS" env-default:"100"`
	Timeout       time.Duration `yaml:"timeout" env:"GOMOKU_REDIS_TIMEOUT" env-default:"2s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
