package models

import (
	"encoding/json"
	"strings"
	"time"
)

const PostStatusInactive = "inactive"

// Post is an activity listing. MatchID is set by the server once any
// conversation on the post reaches confirm; a populated MatchID means the
// slot is filled and no further negotiation is possible anywhere on the
// post.
type Post struct {
	ID        string          `json:"_id"`
	Owner     OwnerRef        `json:"userId"`
	Sport     string          `json:"sport"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
	Location  json.RawMessage `json:"location,omitempty"`
	Status    string          `json:"status"`
	MatchID   string          `json:"matchId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Inactive reports whether the post is no longer active. Status casing is
// not guaranteed by the backend.
func (p *Post) Inactive() bool {
	return strings.EqualFold(p.Status, PostStatusInactive)
}

// OwnerRef tolerates both wire shapes of the post owner: a plain id string
// and a populated user object.
type OwnerRef struct {
	ID     string
	Name   string
	Avatar string
}

func (o *OwnerRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		o.ID = id
		return nil
	}
	var u struct {
		ID     string `json:"_id"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
	if err := json.Unmarshal(data, &u); err != nil {
		// unexpected shape is not fatal, the owner is simply unknown
		return nil
	}
	o.ID = u.ID
	o.Name = u.Name
	o.Avatar = u.Avatar
	return nil
}

func (o OwnerRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.ID)
}

// NewPost is the creation payload for POST /posts.
type NewPost struct {
	Sport     string          `json:"sport"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
	Location  json.RawMessage `json:"location,omitempty"`
}
