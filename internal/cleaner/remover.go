package cleaner

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OmarIbannez/clean-twitter/internal/models"
	"github.com/OmarIbannez/clean-twitter/internal/storage"
)

// Remover performs the two remote removal operations
type Remover interface {
	DestroyStatus(ctx context.Context, id string) error
	Unretweet(ctx context.Context, id string) error
}

// Report describes a batch removal. Targeted lists every post the batch went
// after, whatever the remote side answered.
type Report struct {
	Targeted []models.Post

	mu     sync.Mutex
	failed int
	errs   *multierror.Error
}

// Failed returns how many removals the remote side rejected
func (r *Report) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Err aggregates the rejected removals, or returns nil
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs.ErrorOrNil()
}

func (r *Report) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
	r.errs = multierror.Append(r.errs, err)
}

// batch runs removals with at most concurrency in flight and journals each
// attempt. A failed removal never stops the batch and a repeated id is only
// submitted once.
type batch struct {
	remover     Remover
	journal     storage.Journal
	logger      *zap.Logger
	runID       string
	concurrency int
}

func (b *batch) run(ctx context.Context, posts []models.Post, kindOf func(models.Post) models.RemovalKind) *Report {
	report := &Report{Targeted: posts}

	g := new(errgroup.Group)
	g.SetLimit(max(b.concurrency, 1))
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		p := p
		g.Go(func() error {
			b.remove(ctx, report, p, kindOf(p))
			// removal errors stay in the report and never cancel the group
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (b *batch) remove(ctx context.Context, report *Report, p models.Post, kind models.RemovalKind) {
	var err error
	switch kind {
	case models.KindUnretweet:
		err = b.remover.Unretweet(ctx, p.ID)
	default:
		err = b.remover.DestroyStatus(ctx, p.ID)
	}

	entry := &models.Removal{
		RunID:       b.runID,
		PostID:      p.ID,
		Kind:        kind,
		Text:        p.Text,
		PostedAt:    p.CreatedAt,
		AttemptedAt: time.Now(),
	}
	if err != nil {
		err = errors.Wrapf(err, "%s %s", kind, p.ID)
		report.fail(err)
		entry.Error = err.Error()
		b.logger.Debug("removal_failed", zap.String("post_id", p.ID), zap.String("kind", string(kind)), zap.Error(err))
	} else {
		b.logger.Debug("removal_done", zap.String("post_id", p.ID), zap.String("kind", string(kind)))
	}

	if jerr := b.journal.RecordRemoval(entry); jerr != nil {
		b.logger.Warn("journal_write_failed", zap.String("post_id", p.ID), zap.Error(jerr))
	}
}
