package api

import (
	"context"
	"net/http"

	"github.com/timkeo/timkeo-client/internal/models"
)

// ListPosts returns the full feed. A transport failure degrades to an
// empty slice after logging; the feed never hard-fails on load.
func (c *Client) ListPosts(ctx context.Context) []models.Post {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		c.log.Errorw("list posts", "err", err)
		return nil
	}
	return posts
}

func (c *Client) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePost(ctx context.Context, np models.NewPost) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodPost, "/posts", np, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, patch map[string]interface{}) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodPatch, "/posts/"+id, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+id, nil, nil)
}
