package models

import "time"

// Post represents a single tweet or retweet from a user's timeline
type Post struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Retweeted bool      `json:"retweeted"`
	Text      string    `json:"text"`
}

// TimelinePage is one page of a remote timeline. An empty Next means there
// is nothing left to fetch.
type TimelinePage struct {
	Posts []Post
	Next  string
}

// RemovalKind selects the remote operation used to remove a post
type RemovalKind string

const (
	// KindDelete destroys an original tweet
	KindDelete RemovalKind = "delete"
	// KindUnretweet retracts the user's retweet of someone else's tweet
	KindUnretweet RemovalKind = "unretweet"
)

// KindFor returns the removal operation that applies to the post
func KindFor(p Post) RemovalKind {
	if p.Retweeted {
		return KindUnretweet
	}
	return KindDelete
}
