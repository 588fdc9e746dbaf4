package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// CrawlConfig holds the knobs shared by both collection modes.
type CrawlConfig struct {
	BaseURL string `mapstructure:"base_url"`

	// Politeness and retry behavior.
	Delay     float64 `mapstructure:"delay"` // base settle delay between requests, seconds
	Timeout   int     `mapstructure:"timeout"`
	Retries   int     `mapstructure:"retries"`
	UserAgent string  `mapstructure:"user_agent"`

	// Paginated collection bounds (collect mode).
	StartPage    int  `mapstructure:"start_page"`
	EndPage      int  `mapstructure:"end_page"`
	Headless     bool `mapstructure:"headless"`
	ScrollRounds int  `mapstructure:"scroll_rounds"`

	// Dataset-builder bounds (dataset mode).
	ArtistListPages     int    `mapstructure:"artist_list_pages"`
	IndexPagesPerArtist int    `mapstructure:"index_pages_per_artist"`
	MinPerClass         int    `mapstructure:"min_per_class"`
	MaxPerClass         int    `mapstructure:"max_per_class"`
	Professions         string `mapstructure:"professions"`
}

// LoggingConfig mirrors the logging package config.
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig controls where images and the manifest land.
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// Load reads the configuration file, falling back to defaults when absent.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".artcrawl"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file: defaults apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.delay", 0.5)
	v.SetDefault("crawl.timeout", 20)
	v.SetDefault("crawl.retries", 3)
	v.SetDefault("crawl.user_agent", "Mozilla/5.0 (dataset research)")

	v.SetDefault("crawl.start_page", 1)
	v.SetDefault("crawl.end_page", 150)
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.scroll_rounds", 8)

	v.SetDefault("crawl.artist_list_pages", 500)
	v.SetDefault("crawl.index_pages_per_artist", 200)
	v.SetDefault("crawl.min_per_class", 1000)
	v.SetDefault("crawl.max_per_class", 1200)
	v.SetDefault("crawl.professions", "painter,engraver,printmaker,draughtsman")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.base_dir", "output")
}

// DelayDuration returns the base settle delay as a time.Duration.
func (c CrawlConfig) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// ProfessionSet splits the professions allow-list into a lookup set.
// An empty list disables filtering.
func (c CrawlConfig) ProfessionSet() map[string]bool {
	set := make(map[string]bool)
	for _, p := range strings.Split(c.Professions, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			set[p] = true
		}
	}
	return set
}
