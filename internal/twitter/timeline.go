package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/OmarIbannez/clean-twitter/internal/models"
)

// tweet is the subset of the v1.1 status object the cleaner needs
type tweet struct {
	IDStr     string `json:"id_str"`
	CreatedAt string `json:"created_at"`
	Retweeted bool   `json:"retweeted"`
	Text      string `json:"text"`
	FullText  string `json:"full_text"`
}

func (t tweet) post() models.Post {
	p := models.Post{
		ID:        t.IDStr,
		Retweeted: t.Retweeted,
		Text:      t.FullText,
	}
	if p.Text == "" {
		p.Text = t.Text
	}
	if ts, err := time.Parse(time.RubyDate, t.CreatedAt); err == nil {
		p.CreatedAt = ts
	}
	return p
}

// TimelinePage fetches up to count posts of the user's timeline, retweets
// included. cursor is the Next value of the previous page, or empty for the
// newest posts.
func (tc *Client) TimelinePage(ctx context.Context, username, cursor string, count int) (models.TimelinePage, error) {
	query := url.Values{}
	query.Set("screen_name", username)
	query.Set("count", strconv.Itoa(count))
	query.Set("include_rts", "true")
	query.Set("tweet_mode", "extended")
	query.Set("trim_user", "true")
	if cursor != "" {
		query.Set("max_id", cursor)
	}

	body, err := tc.do(ctx, http.MethodGet, "/statuses/user_timeline.json", query)
	if err != nil {
		return models.TimelinePage{}, err
	}

	var tweets []tweet
	if err := json.Unmarshal(body, &tweets); err != nil {
		return models.TimelinePage{}, errors.Wrap(err, "decode user timeline")
	}

	page := models.TimelinePage{Posts: make([]models.Post, 0, len(tweets))}
	for _, t := range tweets {
		page.Posts = append(page.Posts, t.post())
	}
	page.Next = nextCursor(page.Posts)

	tc.logger.Debug("timeline_page_fetched",
		zap.String("username", username),
		zap.String("cursor", cursor),
		zap.Int("posts", len(page.Posts)),
		zap.String("next", page.Next),
	)

	return page, nil
}

// nextCursor returns the max_id that continues below the oldest post of the
// page. Non-numeric ids end paging.
func nextCursor(posts []models.Post) string {
	if len(posts) == 0 {
		return ""
	}

	var lowest uint64
	for i, p := range posts {
		id, err := strconv.ParseUint(p.ID, 10, 64)
		if err != nil {
			return ""
		}
		if i == 0 || id < lowest {
			lowest = id
		}
	}
	if lowest <= 1 {
		return ""
	}
	return strconv.FormatUint(lowest-1, 10)
}

// DestroyStatus deletes one of the user's own tweets
func (tc *Client) DestroyStatus(ctx context.Context, id string) error {
	_, err := tc.do(ctx, http.MethodPost, "/statuses/destroy/"+url.PathEscape(id)+".json", nil)
	return err
}

// Unretweet retracts the user's retweet of the given tweet
func (tc *Client) Unretweet(ctx context.Context, id string) error {
	_, err := tc.do(ctx, http.MethodPost, "/statuses/unretweet/"+url.PathEscape(id)+".json", nil)
	return err
}
