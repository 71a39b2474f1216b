// Package config — конфигурация сервиса. Слои (снизу вверх):
// дефолты, YAML-файл из GPS_CONFIG, переменные окружения GPS_*.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Host           string   `koanf:"host"`
	Port           int      `koanf:"port"`
	AllowOrigins   []string `koanf:"allow_origins"`
	LogLevel       string   `koanf:"log_level"`
	LogFile        string   `koanf:"log_file"`
	MaxUploadMB    int      `koanf:"max_upload_mb"`
	DBPath         string   `koanf:"db_path"`
	MatchThreshold float64  `koanf:"match_threshold"`
}

func Default() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           8082,
		AllowOrigins:   []string{"*"},
		LogLevel:       "info",
		LogFile:        "logs/gps-canon-service.log",
		MaxUploadMB:    64,
		DBPath:         "data/gps-canon.db",
		MatchThreshold: 0.7,
	}
}

func Load() (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path := os.Getenv("GPS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// GPS_MAX_UPLOAD_MB -> max_upload_mb
	envProvider := env.Provider("GPS_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "gps_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return cfg, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 1 {
		return cfg, errors.New("match_threshold must be in [0, 1]")
	}
	return cfg, nil
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
