package models

import "time"

// Rating is a one-way score from rater to ratee scoped to a match.
type Rating struct {
	ID        string    `json:"_id"`
	MatchID   string    `json:"matchId"`
	RaterID   string    `json:"raterId"`
	RateeID   string    `json:"rateeId"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRating is the submission payload for POST /ratings.
type NewRating struct {
	MatchID string `json:"matchId"`
	RaterID string `json:"raterId"`
	RateeID string `json:"rateeId"`
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}
