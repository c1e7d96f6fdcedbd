package cleaner

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OmarIbannez/clean-twitter/internal/logging"
	"github.com/OmarIbannez/clean-twitter/internal/models"
	"github.com/OmarIbannez/clean-twitter/internal/storage"
)

// Options configures a Cleaner
type Options struct {
	Source   TimelineSource
	Remover  Remover
	Journal  storage.Journal
	Logger   *zap.Logger
	Username string
	// Limit caps how many of the newest posts are fetched
	Limit       int
	PageSize    int
	Concurrency int
}

// Cleaner fetches a user's timeline, picks posts by keyword and removes them
type Cleaner struct {
	source   TimelineSource
	batch    batch
	logger   *zap.Logger
	username string
	limit    int
	pageSize int
}

// New creates a new Cleaner. Every Cleaner gets its own run id, used to
// group its removals in the journal.
func New(opts Options) *Cleaner {
	logger := logging.OrNop(opts.Logger)
	journal := opts.Journal
	if journal == nil {
		journal = storage.NopJournal{}
	}
	runID := uuid.NewString()

	return &Cleaner{
		source: opts.Source,
		batch: batch{
			remover:     opts.Remover,
			journal:     journal,
			logger:      logger.With(zap.String("run_id", runID)),
			runID:       runID,
			concurrency: opts.Concurrency,
		},
		logger:   logger,
		username: opts.Username,
		limit:    opts.Limit,
		pageSize: opts.PageSize,
	}
}

// RunID identifies this cleaner's removals in the journal
func (c *Cleaner) RunID() string {
	return c.batch.runID
}

// Timeline returns the user's newest posts, up to the configured limit
func (c *Cleaner) Timeline(ctx context.Context) ([]models.Post, error) {
	posts, err := Materialize(ctx, c.source, c.username, c.limit, c.pageSize)
	if err != nil {
		return nil, err
	}
	c.logger.Info("timeline_materialized", zap.String("username", c.username), zap.Int("posts", len(posts)))
	return posts, nil
}

// Find returns the timeline posts matching any of words
func (c *Cleaner) Find(ctx context.Context, words []string) ([]models.Post, error) {
	posts, err := c.Timeline(ctx)
	if err != nil {
		return nil, err
	}
	matched := Filter(posts, words)
	c.logger.Info("timeline_filtered", zap.Strings("words", words), zap.Int("matched", len(matched)))
	return matched, nil
}

// Nuke removes every timeline post matching any of words
func (c *Cleaner) Nuke(ctx context.Context, words []string) (*Report, error) {
	matched, err := c.Find(ctx, words)
	if err != nil {
		return nil, err
	}
	return c.RemovePosts(ctx, matched), nil
}

// RemovePosts unretweets the retweets among posts and deletes the rest.
// Rejected removals are kept in the report only.
func (c *Cleaner) RemovePosts(ctx context.Context, posts []models.Post) *Report {
	report := c.batch.run(ctx, posts, models.KindFor)
	c.logReport(report)
	return report
}

// RemoveIDs applies the removal of the given kind to every id
func (c *Cleaner) RemoveIDs(ctx context.Context, ids []string, kind models.RemovalKind) *Report {
	posts := make([]models.Post, len(ids))
	for i, id := range ids {
		posts[i] = models.Post{ID: id, Retweeted: kind == models.KindUnretweet}
	}
	report := c.batch.run(ctx, posts, func(models.Post) models.RemovalKind { return kind })
	c.logReport(report)
	return report
}

func (c *Cleaner) logReport(r *Report) {
	c.logger.Info("removal_batch_done",
		zap.String("run_id", c.batch.runID),
		zap.Int("targeted", len(r.Targeted)),
		zap.Int("failed", r.Failed()),
	)
}
