package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/careerpilot/jobradar/internal/geo"
	"github.com/careerpilot/jobradar/internal/jobs"
	"github.com/careerpilot/jobradar/internal/scoring"
	"github.com/careerpilot/jobradar/internal/scraper"
	"github.com/careerpilot/jobradar/internal/search"
)

const (
	app = "jobradar"
)

type Config struct {
	UserAgent string             `mapstructure:"user-agent"`
	Job       *jobs.ReferenceJob `mapstructure:"job"`
	Search    *SearchConfig      `mapstructure:"search"`
	Geocoder  *GeocoderConfig    `mapstructure:"geocoder"`
	Sources   []scraper.Config   `mapstructure:"sources"`
	Server    *ServerConfig      `mapstructure:"server"`
	Tracker   *TrackerConfig     `mapstructure:"tracker"`
}

type SearchConfig struct {
	Radius           float64       `mapstructure:"radius"`
	Limit            int           `mapstructure:"limit"`
	Remote           *bool         `mapstructure:"remote"`
	JobTypes         []string      `mapstructure:"job-types"`
	ExperienceLevels []string      `mapstructure:"experience-levels"`
	PerSourceTimeout time.Duration `mapstructure:"per-source-timeout"`
	OverallDeadline  time.Duration `mapstructure:"overall-deadline"`
}

type GeocoderConfig struct {
	BaseURL     string        `mapstructure:"base-url"`
	MinInterval time.Duration `mapstructure:"min-interval"`
	RedisAddr   string        `mapstructure:"redis-addr"`
	CacheTTL    time.Duration `mapstructure:"cache-ttl"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type TrackerConfig struct {
	BaseURL string `mapstructure:"base-url"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobradar finds postings similar to a saved job application, ranked by relevance and proximity",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("geocoder.redis-addr", "JOBRADAR_REDIS_ADDR"); err != nil {
		log.Fatalf("binding JOBRADAR_REDIS_ADDR environment variable: %v", err)
	}
	if err := viper.BindEnv("tracker.base-url", "JOBRADAR_TRACKER_URL"); err != nil {
		log.Fatalf("binding JOBRADAR_TRACKER_URL environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobradar.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is consumed by the search and serve commands only.
	if searchCmd.CalledAs() == "" && serveCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The search command can run on flags and built-in sources alone; a
		// missing default config file is fine. A broken one is not.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// buildPipeline wires the scrapers, the geocoding resolver, and the
// orchestrator from the config. Everything is constructed here and injected;
// nothing holds global state.
func buildPipeline(config *Config, logger *zap.Logger) (*search.Orchestrator, []*scraper.Scraper, *geo.Resolver, error) {
	sourceConfigs := config.Sources
	if len(sourceConfigs) == 0 {
		sourceConfigs = scraper.DefaultSources()
	}

	scrapers := make([]*scraper.Scraper, 0, len(sourceConfigs))
	sources := make([]search.Source, 0, len(sourceConfigs))
	for _, sc := range sourceConfigs {
		if err := sc.Validate(); err != nil {
			return nil, nil, nil, err
		}

		var opts []scraper.Option
		if config.UserAgent != "" {
			opts = append(opts, scraper.WithUserAgent(config.UserAgent))
		}

		s := scraper.New(sc, logger, opts...)
		scrapers = append(scrapers, s)
		sources = append(sources, s)
	}

	resolver := buildResolver(config.Geocoder, logger)

	var orchOpts []search.OrchestratorOption
	if config.Search != nil {
		orchOpts = append(orchOpts,
			search.WithPerSourceTimeout(config.Search.PerSourceTimeout),
			search.WithOverallDeadline(config.Search.OverallDeadline),
		)
	}

	orchestrator := search.NewOrchestrator(sources, resolver, scoring.New(), logger, orchOpts...)

	return orchestrator, scrapers, resolver, nil
}

func buildResolver(cfg *GeocoderConfig, logger *zap.Logger) *geo.Resolver {
	var opts []geo.NominatimOption
	cache := geo.NewMemoryCache()

	if cfg != nil {
		opts = append(opts,
			geo.WithBaseURL(cfg.BaseURL),
			geo.WithMinInterval(cfg.MinInterval),
		)

		if cfg.RedisAddr != "" {
			ttl := cfg.CacheTTL
			if ttl <= 0 {
				ttl = 30 * 24 * time.Hour
			}
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			cache = geo.NewRedisCache(rdb, ttl)
			logger.Info("using redis geocode cache", zap.String("addr", cfg.RedisAddr))
		}
	}

	return geo.NewResolver(geo.NewNominatim(opts...), cache, logger)
}
