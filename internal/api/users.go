package api

import (
	"context"
	"net/http"

	"github.com/timkeo/timkeo-client/internal/models"
)

// Profile exchanges the stored bearer token for the authenticated
// profile record.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+id, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch map[string]interface{}) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPatch, "/users/"+id, patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
