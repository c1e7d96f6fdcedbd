package cleaner

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/OmarIbannez/clean-twitter/internal/models"
)

// TimelineSource serves a user's timeline one page at a time
type TimelineSource interface {
	TimelinePage(ctx context.Context, username, cursor string, count int) (models.TimelinePage, error)
}

// Materialize pulls pages from src until limit posts are collected or the
// timeline runs out. Posts keep the order the source delivered them in.
func Materialize(ctx context.Context, src TimelineSource, username string, limit, pageSize int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	if pageSize <= 0 {
		pageSize = limit
	}

	posts := make([]models.Post, 0, min(limit, pageSize))
	cursor := ""
	for len(posts) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := src.TimelinePage(ctx, username, cursor, min(pageSize, limit-len(posts)))
		if err != nil {
			return nil, errors.Wrapf(err, "fetch timeline of %s", username)
		}

		remaining := limit - len(posts)
		if len(page.Posts) > remaining {
			page.Posts = page.Posts[:remaining]
		}
		posts = append(posts, page.Posts...)

		if len(page.Posts) == 0 || page.Next == "" {
			break
		}
		cursor = page.Next
	}

	return posts, nil
}

// Filter returns the posts whose text contains any of words, ignoring case.
// Matching is by substring, so "cat" matches "category". The input is left
// untouched and the result keeps its order. An empty word list matches nothing.
func Filter(posts []models.Post, words []string) []models.Post {
	matched := []models.Post{}
	if len(words) == 0 {
		return matched
	}

	needles := make([]string, len(words))
	for i, w := range words {
		needles[i] = strings.ToLower(w)
	}

	for _, p := range posts {
		text := strings.ToLower(p.Text)
		for _, n := range needles {
			if strings.Contains(text, n) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}
