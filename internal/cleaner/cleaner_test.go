package cleaner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmarIbannez/clean-twitter/internal/models"
)

// fakeTimeline serves posts newest first in pages, using the index of the
// next post as the cursor
type fakeTimeline struct {
	posts  []models.Post
	err    error
	counts []int
}

func (f *fakeTimeline) TimelinePage(ctx context.Context, username, cursor string, count int) (models.TimelinePage, error) {
	f.counts = append(f.counts, count)
	if f.err != nil {
		return models.TimelinePage{}, f.err
	}
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
	}
	end := min(start+count, len(f.posts))
	page := models.TimelinePage{Posts: f.posts[start:end]}
	if end < len(f.posts) {
		page.Next = fmt.Sprint(end)
	}
	return page, nil
}

type call struct {
	op string
	id string
}

// fakeRemover records every call and fails for the ids in failOn
type fakeRemover struct {
	mu     sync.Mutex
	calls  []call
	failOn map[string]bool
}

func (f *fakeRemover) record(op, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op, id})
	if f.failOn[id] {
		return errors.New("No status found with that ID.")
	}
	return nil
}

func (f *fakeRemover) DestroyStatus(ctx context.Context, id string) error {
	return f.record("delete", id)
}

func (f *fakeRemover) Unretweet(ctx context.Context, id string) error {
	return f.record("unretweet", id)
}

func (f *fakeRemover) idsFor(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []string{}
	for _, c := range f.calls {
		if c.op == op {
			ids = append(ids, c.id)
		}
	}
	sort.Strings(ids)
	return ids
}

type memJournal struct {
	mu      sync.Mutex
	entries []*models.Removal
	err     error
}

func (m *memJournal) RecordRemoval(r *models.Removal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, r)
	return nil
}

func (m *memJournal) ListRemovals(limit int) ([]*models.Removal, error) { return m.entries, nil }
func (m *memJournal) Enabled() bool                                    { return true }
func (m *memJournal) Close() error                                     { return nil }

func scenarioPosts() []models.Post {
	texts := []string{"hello world", "buy now!!", "CATalog sale", "hi", "BUY stuff"}
	posts := make([]models.Post, len(texts))
	for i, text := range texts {
		posts[i] = models.Post{ID: fmt.Sprint(i + 1), Text: text}
	}
	return posts
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestFilterScenario(t *testing.T) {
	posts := scenarioPosts()

	// case-insensitive substring match
	assert.Equal(t, []string{"2", "5"}, ids(Filter(posts, []string{"buy"})))

	// substring, not word boundary: "cat" hits "CATalog"
	assert.Equal(t, []string{"3"}, ids(Filter(posts, []string{"cat"})))

	// any keyword is enough, order of the input is kept
	assert.Equal(t, []string{"1", "2", "4", "5"}, ids(Filter(posts, []string{"BUY", "h"})))
}

func TestFilterPartitionsInput(t *testing.T) {
	posts := scenarioPosts()
	words := []string{"Buy", "WORLD"}

	matched := Filter(posts, words)
	inMatched := map[string]bool{}
	for _, p := range matched {
		inMatched[p.ID] = true
	}

	for _, p := range posts {
		hit := false
		for _, w := range words {
			if strings.Contains(strings.ToLower(p.Text), strings.ToLower(w)) {
				hit = true
			}
		}
		assert.Equal(t, hit, inMatched[p.ID], "post %s", p.ID)
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	words := []string{"buy", "sale"}
	once := Filter(scenarioPosts(), words)
	twice := Filter(once, words)
	assert.Equal(t, once, twice)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	posts := scenarioPosts()
	before := append([]models.Post(nil), posts...)
	Filter(posts, []string{"buy"})
	assert.Equal(t, before, posts)
}

func TestFilterEmptyWordsMatchesNothing(t *testing.T) {
	assert.Empty(t, Filter(scenarioPosts(), nil))
	assert.Empty(t, Filter(nil, []string{"buy"}))
}

func TestMaterializePagesUntilLimit(t *testing.T) {
	src := &fakeTimeline{posts: make([]models.Post, 10)}
	for i := range src.posts {
		src.posts[i] = models.Post{ID: fmt.Sprint(i)}
	}

	posts, err := Materialize(context.Background(), src, "jack", 7, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6"}, ids(posts))
	// the last page only asks for what is still missing
	assert.Equal(t, []int{3, 3, 1}, src.counts)
}

func TestMaterializeStopsWhenTimelineEnds(t *testing.T) {
	src := &fakeTimeline{posts: scenarioPosts()}

	posts, err := Materialize(context.Background(), src, "jack", 3200, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(posts))
	assert.Len(t, src.counts, 3)
}

func TestMaterializeZeroLimit(t *testing.T) {
	src := &fakeTimeline{posts: scenarioPosts()}

	posts, err := Materialize(context.Background(), src, "jack", 0, 200)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, src.counts)
}

func TestMaterializePropagatesErrors(t *testing.T) {
	boom := errors.New("invalid or expired token")
	src := &fakeTimeline{err: boom}

	_, err := Materialize(context.Background(), src, "jack", 10, 5)
	assert.ErrorIs(t, err, boom)
}

func TestMaterializeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Materialize(ctx, &fakeTimeline{posts: scenarioPosts()}, "jack", 10, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemovePostsDispatchesByRetweetFlag(t *testing.T) {
	remover := &fakeRemover{}
	c := New(Options{Remover: remover, Concurrency: 1})

	posts := []models.Post{
		{ID: "1", Text: "mine"},
		{ID: "2", Text: "RT someone", Retweeted: true},
		{ID: "3", Text: "also mine"},
	}
	report := c.RemovePosts(context.Background(), posts)

	assert.Equal(t, []string{"1", "3"}, remover.idsFor("delete"))
	assert.Equal(t, []string{"2"}, remover.idsFor("unretweet"))
	assert.Equal(t, posts, report.Targeted)
	assert.Equal(t, 0, report.Failed())
	assert.NoError(t, report.Err())
}

func TestRemovePostsKeepsGoingAfterFailures(t *testing.T) {
	remover := &fakeRemover{failOn: map[string]bool{"1": true, "3": true}}
	c := New(Options{Remover: remover, Concurrency: 1})

	posts := []models.Post{{ID: "1"}, {ID: "2", Retweeted: true}, {ID: "3"}, {ID: "4"}}
	report := c.RemovePosts(context.Background(), posts)

	// sequential run: every id is attempted in order, failures included
	assert.Equal(t, []call{
		{"delete", "1"},
		{"unretweet", "2"},
		{"delete", "3"},
		{"delete", "4"},
	}, remover.calls)
	assert.Equal(t, posts, report.Targeted)
	assert.Equal(t, 2, report.Failed())
	assert.ErrorContains(t, report.Err(), "No status found")
}

func TestRemovePostsConcurrently(t *testing.T) {
	remover := &fakeRemover{failOn: map[string]bool{"7": true}}
	c := New(Options{Remover: remover, Concurrency: 4})

	var posts []models.Post
	var wantDelete, wantUnretweet []string
	for i := 0; i < 20; i++ {
		p := models.Post{ID: fmt.Sprintf("%02d", i), Retweeted: i%3 == 0}
		posts = append(posts, p)
		if p.Retweeted {
			wantUnretweet = append(wantUnretweet, p.ID)
		} else {
			wantDelete = append(wantDelete, p.ID)
		}
	}
	report := c.RemovePosts(context.Background(), posts)

	assert.Equal(t, wantDelete, remover.idsFor("delete"))
	assert.Equal(t, wantUnretweet, remover.idsFor("unretweet"))
	assert.Len(t, report.Targeted, 20)
}

func TestRemoveIDsDelete(t *testing.T) {
	remover := &fakeRemover{}
	c := New(Options{Remover: remover})

	report := c.RemoveIDs(context.Background(), []string{"1", "2", "3"}, models.KindDelete)

	assert.Equal(t, []string{"1", "2", "3"}, remover.idsFor("delete"))
	assert.Empty(t, remover.idsFor("unretweet"))
	assert.Equal(t, []string{"1", "2", "3"}, ids(report.Targeted))
}

func TestRemoveIDsSkipsRepeatedIDs(t *testing.T) {
	remover := &fakeRemover{}
	c := New(Options{Remover: remover, Concurrency: 3})

	report := c.RemoveIDs(context.Background(), []string{"1", "2", "1"}, models.KindDelete)

	assert.Equal(t, []string{"1", "2"}, remover.idsFor("delete"))
	assert.Len(t, report.Targeted, 3)
}

func TestRemoveIDsUnretweet(t *testing.T) {
	remover := &fakeRemover{failOn: map[string]bool{"2": true}}
	c := New(Options{Remover: remover, Concurrency: 2})

	report := c.RemoveIDs(context.Background(), []string{"1", "2", "3"}, models.KindUnretweet)

	assert.Equal(t, []string{"1", "2", "3"}, remover.idsFor("unretweet"))
	assert.Empty(t, remover.idsFor("delete"))
	assert.Equal(t, 1, report.Failed())
}

func TestNukeEndToEnd(t *testing.T) {
	posts := scenarioPosts()
	posts[4].Retweeted = true
	remover := &fakeRemover{}
	journal := &memJournal{}
	c := New(Options{
		Source:   &fakeTimeline{posts: posts},
		Remover:  remover,
		Journal:  journal,
		Username: "jack",
		Limit:    3200,
		PageSize: 200,
	})

	report, err := c.Nuke(context.Background(), []string{"buy"})
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "5"}, ids(report.Targeted))
	assert.Equal(t, []string{"2"}, remover.idsFor("delete"))
	assert.Equal(t, []string{"5"}, remover.idsFor("unretweet"))

	require.Len(t, journal.entries, 2)
	for _, e := range journal.entries {
		assert.Equal(t, c.RunID(), e.RunID)
		assert.True(t, e.Succeeded())
		assert.False(t, e.AttemptedAt.IsZero())
	}
}

func TestNukeAbortsOnTimelineError(t *testing.T) {
	remover := &fakeRemover{}
	c := New(Options{
		Source:  &fakeTimeline{err: errors.New("401 Unauthorized")},
		Remover: remover,
		Limit:   10,
	})

	_, err := c.Nuke(context.Background(), []string{"buy"})
	assert.Error(t, err)
	assert.Empty(t, remover.calls)
}

func TestJournalFailureDoesNotStopRemovals(t *testing.T) {
	remover := &fakeRemover{}
	c := New(Options{Remover: remover, Journal: &memJournal{err: errors.New("disk full")}})

	report := c.RemoveIDs(context.Background(), []string{"1", "2"}, models.KindDelete)

	assert.Equal(t, []string{"1", "2"}, remover.idsFor("delete"))
	assert.Equal(t, 0, report.Failed())
}

func TestJournalRecordsFailures(t *testing.T) {
	journal := &memJournal{}
	c := New(Options{Remover: &fakeRemover{failOn: map[string]bool{"9": true}}, Journal: journal})

	c.RemoveIDs(context.Background(), []string{"9"}, models.KindUnretweet)

	require.Len(t, journal.entries, 1)
	assert.Equal(t, models.KindUnretweet, journal.entries[0].Kind)
	assert.False(t, journal.entries[0].Succeeded())
	assert.Contains(t, journal.entries[0].Error, "No status found")
}
