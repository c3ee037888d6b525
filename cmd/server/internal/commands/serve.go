package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/client"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/emissions"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/logger"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/server"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/store"
	boltstore "github.com/syang0624/NASASpaceAppsChallenge2024/internal/store/bolt"
	memorystore "github.com/syang0624/NASASpaceAppsChallenge2024/internal/store/memory"
	postgresstore "github.com/syang0624/NASASpaceAppsChallenge2024/internal/store/postgres"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/story"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/telemetry"
)

type ServeCmd struct {
	// Server configuration
	Port int    `help:"HTTP server port" default:"8000" env:"PORT"`
	Host string `help:"HTTP server listen host" default:"0.0.0.0" env:"HOST"`

	// Dataset configuration
	DataPath string `help:"directory or base URL holding the sector datasets" default:"data/Models" env:"DATA_FILE_PATH"`
	CacheDir string `help:"cache directory for datasets fetched over HTTP" default:"" env:"DATA_CACHE_DIR"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:5173,https://nasaspaceappschallenge2024-2.onrender.com,https://syang0624.github.io,http://101.101.218.177,https://*.onrender.com" env:"CORS_ORIGINS"`

	// Operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"TRACING"`

	// Story configuration
	Story StoryFlags `embed:"" prefix:"story-"`

	// Store configuration
	StoreType     string             `help:"store type (memory, bolt, or postgres)" default:"memory" env:"STORE_TYPE" enum:"memory,bolt,postgres"`
	BoltStore     BoltStoreFlags     `embed:"" prefix:"bolt-"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type StoryFlags struct {
	APIKey  string `help:"chat completions API key, template stories are used when unset" env:"STORY_API_KEY"`
	BaseURL string `help:"chat completions base URL" default:"https://api.openai.com/v1" env:"STORY_BASE_URL"`
	Model   string `help:"chat completions model" default:"gpt-4o-mini" env:"STORY_MODEL"`
}

type BoltStoreFlags struct {
	Path string `help:"path to the bolt database file" default:"submissions.db" env:"BOLT_PATH"`
}

func (s *BoltStoreFlags) Validate() error {
	if s.Path == "" {
		return errors.New("bolt database path is required (--bolt-path or BOLT_PATH)")
	}
	return nil
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"10"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := log.WithContext(context.Background())

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting GHG API server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.Init(ctx, "ghg-api", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	clock := clockwork.NewRealClock()

	predictor, err := c.trainModel(ctx, log)
	if err != nil {
		return err
	}

	stories := c.newStoryGenerator(log)

	submissions, err := c.createSubmissionStore(ctx, log, clock)
	if err != nil {
		return err
	}
	if stoppable, ok := submissions.(interface{ Stop() error }); ok {
		defer func() {
			if err := stoppable.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop submission store")
			}
		}()
	}

	initial, err := server.NewInitial(ctx, predictor, stories)
	if err != nil {
		return fmt.Errorf("failed to compute initial prediction: %w", err)
	}

	handler, err := server.New(predictor, stories, submissions, clock, initial).Handler(log, c.CORSOrigins)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	log.Info().Str("addr", addr).Str("store", c.StoreType).Msg("Starting HTTP server")

	return runServer(log, configureHTTPServer(addr, handler))
}

// trainModel loads the sector datasets and fits the emissions model.
func (c *ServeCmd) trainModel(ctx context.Context, log zerolog.Logger) (*emissions.Predictor, error) {
	clientCfg := client.DefaultConfig()
	clientCfg.CacheDir = c.CacheDir

	src := emissions.NewSource(c.DataPath, client.New(clientCfg))

	manifest, err := emissions.LoadManifest(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset manifest: %w", err)
	}

	dataset, err := emissions.LoadDataset(ctx, src, manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets from %s: %w", c.DataPath, err)
	}

	started := time.Now()
	predictor, err := emissions.Train(dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	telemetry.GetMetrics().ModelTrainDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	log.Info().
		Int("states", len(predictor.States())).
		Dur("took", time.Since(started)).
		Msg("Model trained successfully")

	return predictor, nil
}

// newStoryGenerator returns the template generator alone when no API key is
// configured, otherwise the LLM generator with the template as fallback.
func (c *ServeCmd) newStoryGenerator(log zerolog.Logger) story.Generator {
	template := story.NewTemplateGenerator()
	if c.Story.APIKey == "" {
		log.Info().Msg("No story API key configured, using template stories")
		return template
	}

	llm := story.NewLLMGenerator(story.Config{
		BaseURL: c.Story.BaseURL,
		APIKey:  c.Story.APIKey,
		Model:   c.Story.Model,
	})

	log.Info().Str("model", c.Story.Model).Msg("Using LLM stories with template fallback")

	return story.NewFallback(llm, template)
}

// createSubmissionStore creates the configured store backend.
func (c *ServeCmd) createSubmissionStore(ctx context.Context, log zerolog.Logger, clock clockwork.Clock) (store.SubmissionStore, error) {
	switch c.StoreType {
	case "bolt":
		if err := c.BoltStore.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate bolt flags: %w", err)
		}
		submissions, err := boltstore.NewSubmissionStore(c.BoltStore.Path, clock)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", c.BoltStore.Path).Msg("Using bolt submission store")
		return submissions, nil

	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}
		storeCfg := &postgresstore.Config{
			Pool: &postgresstore.PoolConfig{
				ConnString:      c.PostgresStore.ConnString,
				MaxConns:        c.PostgresStore.MaxConns,
				MinConns:        c.PostgresStore.MinConns,
				MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
				MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
			},
			AutoMigrate: c.PostgresStore.AutoMigrate,
		}
		submissions, err := postgresstore.NewSubmissionStore(ctx, storeCfg, clock)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Using PostgreSQL submission store")
		return submissions, nil

	default:
		log.Info().Msg("Using in-memory submission store")
		return memorystore.NewSubmissionStore(clock), nil
	}
}
