package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Site struct {
		BaseURL        string `yaml:"base_url"`
		UserAgent      string `yaml:"user_agent"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"site"`

	Fetch struct {
		Retries   int `yaml:"retries"`
		BackoffMS int `yaml:"backoff_ms"`
	} `yaml:"fetch"`

	Harvest struct {
		Pages              int `yaml:"pages"`
		ChunkPages         int `yaml:"chunk_pages"`
		Workers            int `yaml:"workers"`
		TaskTimeoutSeconds int `yaml:"task_timeout_seconds"`
		StopAfterNoNew     int `yaml:"stop_after_no_new"`
		PageDelayMS        int `yaml:"page_delay_ms"`
	} `yaml:"harvest"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = "https://www.thegradcafe.com/survey/"
	}
	if c.Site.UserAgent == "" {
		c.Site.UserAgent = "Mozilla/5.0"
	}
	if c.Site.TimeoutSeconds <= 0 {
		c.Site.TimeoutSeconds = 30
	}
	if c.Fetch.Retries <= 0 {
		c.Fetch.Retries = 3
	}
	if c.Fetch.BackoffMS <= 0 {
		c.Fetch.BackoffMS = 1500
	}
	if c.Harvest.Pages <= 0 {
		c.Harvest.Pages = 1550
	}
	if c.Harvest.ChunkPages <= 0 {
		c.Harvest.ChunkPages = 25
	}
	if c.Harvest.Workers <= 0 {
		c.Harvest.Workers = 8
	}
	if c.Harvest.TaskTimeoutSeconds <= 0 {
		c.Harvest.TaskTimeoutSeconds = 60
	}
	if c.Harvest.StopAfterNoNew <= 0 {
		c.Harvest.StopAfterNoNew = 2
	}
	if c.Harvest.PageDelayMS <= 0 {
		c.Harvest.PageDelayMS = 250
	}
}

func (c Config) SiteTimeout() time.Duration {
	return time.Duration(c.Site.TimeoutSeconds) * time.Second
}

func (c Config) FetchBackoff() time.Duration {
	return time.Duration(c.Fetch.BackoffMS) * time.Millisecond
}

func (c Config) TaskTimeout() time.Duration {
	return time.Duration(c.Harvest.TaskTimeoutSeconds) * time.Second
}

func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Harvest.PageDelayMS) * time.Millisecond
}
