package models

import "time"

// Removal records one removal attempt made during a run
type Removal struct {
	RunID       string      `json:"run_id"`
	PostID      string      `json:"post_id"`
	Kind        RemovalKind `json:"kind"`
	Text        string      `json:"text,omitempty"`
	PostedAt    time.Time   `json:"posted_at,omitempty"`
	Error       string      `json:"error,omitempty"`
	AttemptedAt time.Time   `json:"attempted_at"`
}

// Succeeded reports whether the remote side accepted the removal
func (r *Removal) Succeeded() bool {
	return r.Error == ""
}
