package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"` // "dev" or "prod", selects log encoder
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Questions struct {
		TTL string `yaml:"ttl"` // cache TTL for question/language content
	} `yaml:"questions"`
	Judge struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		PollInterval string `yaml:"poll_interval"`
		MaxPolls     int    `yaml:"max_polls"`
	} `yaml:"judge"`
	SMTP struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		From        string `yaml:"from"`
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"smtp"`
	Storage struct {
		Bucket    string `yaml:"bucket"`
		CDNDomain string `yaml:"cdn_domain"`
	} `yaml:"storage"`
	Achievements struct {
		Ladder []LadderEntry `yaml:"ladder"`
	} `yaml:"achievements"`
}

// LadderEntry is one rung of the badge ladder: a completion-percentage
// threshold and the level label awarded at it.
type LadderEntry struct {
	Percent int    `yaml:"percent"`
	Level   string `yaml:"level"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty
// or malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
