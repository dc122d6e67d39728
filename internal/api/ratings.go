package api

import (
	"context"
	"net/http"

	"github.com/timkeo/timkeo-client/internal/models"
)

func (c *Client) CreateRating(ctx context.Context, nr models.NewRating) (*models.Rating, error) {
	var r models.Rating
	if err := c.do(ctx, http.MethodPost, "/ratings", nr, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// RatingsByMatch is the existence check behind "already rated".
func (c *Client) RatingsByMatch(ctx context.Context, matchID string) ([]models.Rating, error) {
	var rs []models.Rating
	if err := c.do(ctx, http.MethodGet, "/ratings/match/"+matchID, nil, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (c *Client) RatingsByRatee(ctx context.Context, rateeID string) ([]models.Rating, error) {
	var rs []models.Rating
	if err := c.do(ctx, http.MethodGet, "/ratings/user/"+rateeID, nil, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}
