package cli

import (
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/OmarIbannez/clean-twitter/internal/cleaner"
	"github.com/OmarIbannez/clean-twitter/internal/config"
	"github.com/OmarIbannez/clean-twitter/internal/logging"
	"github.com/OmarIbannez/clean-twitter/internal/storage"
	"github.com/OmarIbannez/clean-twitter/internal/twitter"
)

// Backend bundles the collaborators one invocation works with
type Backend struct {
	Config   *config.Config
	Logger   *zap.Logger
	Timeline cleaner.TimelineSource
	Remover  cleaner.Remover
	Journal  storage.Journal
}

// Close releases the journal and flushes the logger
func (b *Backend) Close() error {
	var err error
	if b.Journal != nil {
		err = b.Journal.Close()
	}
	if b.Logger != nil {
		_ = b.Logger.Sync()
	}
	return err
}

// BackendFactory builds the Backend once flags are parsed
type BackendFactory func(configPath string, verbose bool) (*Backend, error)

// DefaultBackend loads .env and the configuration, then wires the Twitter
// client and the removal journal
func DefaultBackend(configPath string, verbose bool) (*Backend, error) {
	// a missing .env is fine
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}

	client, err := twitter.NewClient(cfg.Twitter, logger)
	if err != nil {
		return nil, err
	}

	journal, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "open journal")
	}

	logger.Debug("backend_ready",
		zap.String("username", cfg.Twitter.Username),
		zap.Int("limit", cfg.Cleaner.Limit),
		zap.String("storage", cfg.Storage.Type),
	)

	return &Backend{
		Config:   cfg,
		Logger:   logger,
		Timeline: client,
		Remover:  client,
		Journal:  journal,
	}, nil
}
