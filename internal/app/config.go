package app

import (
	"time"

	"mightstone-backend/internal/cardcache"
	"mightstone-backend/internal/components/pagecache"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/scrapers/scryfall"
	"mightstone-backend/lib/configutil"
	"mightstone-backend/lib/telemetry"

	"dario.cat/mergo"
)

type EDHRECConfig struct {
	BaseURL           string  `json:"base_url"`
	JSONBaseURL       string  `json:"json_base_url"`
	UserAgent         string  `json:"user_agent"`
	TimeoutSeconds    float64 `json:"timeout_seconds"`
	Retries           int     `json:"retries"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type ScryfallConfig struct {
	BaseURL           string  `json:"base_url"`
	TimeoutSeconds    float64 `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// MaxConcurrency and MinDelayMs shape hydration lookups.
	MaxConcurrency int    `json:"max_concurrency"`
	MinDelayMs     int    `json:"min_delay_ms"`
	MaxItems       int    `json:"max_items"`
	ImageSize      string `json:"image_size"`
}

type CacheConfig struct {
	TTLSeconds int    `json:"ttl_seconds"`
	Size       int    `json:"size"`
	RedisURL   string `json:"redis_url"`
}

type CardCacheConfig struct {
	// File is the SQLite database, empty disables the card cache.
	File      string `json:"file"`
	TTLHours  int    `json:"ttl_hours"`
	PurgeCron string `json:"purge_cron"`
}

type TagsConfig struct {
	// DenylistFile holds one tag per line and is reloaded when it changes.
	DenylistFile  string   `json:"denylist_file"`
	ExtraDenylist []string `json:"extra_denylist"`
}

type DebugConfig struct {
	// RestyDumpDir receives every upstream exchange when set.
	RestyDumpDir string `json:"resty_dump_dir"`
}

type Config struct {
	Port      int              `json:"port"`
	Telemetry telemetry.Config `json:"telemetry"`
	EDHREC    EDHRECConfig     `json:"edhrec"`
	Scryfall  ScryfallConfig   `json:"scryfall"`
	Cache     CacheConfig      `json:"cache"`
	CardCache CardCacheConfig  `json:"card_cache"`
	Tags      TagsConfig       `json:"tags"`
	Debug     DebugConfig      `json:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Port:      8000,
		Telemetry: telemetry.Config{LogLevel: "info"},
		EDHREC: EDHRECConfig{
			BaseURL:           edhrec.DefaultBaseURL,
			JSONBaseURL:       edhrec.DefaultJSONBaseURL,
			UserAgent:         edhrec.DefaultUserAgent,
			TimeoutSeconds:    edhrec.DefaultTimeout.Seconds(),
			Retries:           2,
			RequestsPerSecond: 4,
		},
		Scryfall: ScryfallConfig{
			BaseURL:           scryfall.DefaultBaseURL,
			TimeoutSeconds:    scryfall.DefaultTimeout.Seconds(),
			RequestsPerSecond: scryfall.DefaultRequestsPerSecond,
			MaxConcurrency:    4,
			MinDelayMs:        100,
			MaxItems:          120,
			ImageSize:         string(scryfall.ImageNormal),
		},
		Cache: CacheConfig{
			TTLSeconds: int(pagecache.DefaultTTL.Seconds()),
			Size:       pagecache.DefaultSize,
		},
		CardCache: CardCacheConfig{
			TTLHours:  int(cardcache.DefaultTTL.Hours()),
			PurgeCron: "@daily",
		},
	}
}

// LoadConfig reads path (and its .local override) and fills every field
// left empty from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, err
	}
	return withDefaults(cfg)
}

// FindConfig is LoadConfig on the nearest file called name in the working
// directory or one of its parents.
func FindConfig(name string) (Config, error) {
	cfg, err := configutil.ReadRecursively[Config](name)
	if err != nil {
		return Config{}, err
	}
	return withDefaults(cfg)
}

func withDefaults(cfg Config) (Config, error) {
	err := mergo.Merge(&cfg, DefaultConfig())
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
