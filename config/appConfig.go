package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"catalogsync_api/config/values"
)

// StructuredFeedConfig is the token-authenticated REST feed (stable numeric ids).
type StructuredFeedConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// ScrapedFeedConfig is the single action-parameterized scrape endpoint.
type ScrapedFeedConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
	// Windows1251 marks feeds served in cp1251 instead of UTF-8.
	Windows1251 bool `yaml:"windows_1251"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
}

type AppConfig struct {
	Structured StructuredFeedConfig `yaml:"structured"`
	Scraped    ScrapedFeedConfig    `yaml:"scraped"`
	Server     ServerConfig         `yaml:"server"`
	Postgres   PostgresConfig       `yaml:"postgres"`
	Sync       values.SyncValues    `yaml:"sync"`
	// AliasFile points at the category alias YAML (catalog-specific data,
	// kept out of the binary).
	AliasFile string `yaml:"alias_file"`
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := &AppConfig{}
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}
	config.Sync.ApplyDefaults()
	if config.Postgres.Host == "" {
		config.Postgres = *GetPostgresConfig()
	}
	return config, nil
}
