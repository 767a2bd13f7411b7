package models

import "time"

// Comment is a user's message on an event.
type Comment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	EventID   int64     `json:"event_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CommentView is a comment joined with its author's display name.
type CommentView struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	UserName  string    `json:"user_name"`
	UserID    int64     `json:"user_id"`
}
