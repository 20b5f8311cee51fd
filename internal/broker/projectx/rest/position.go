package rest

import (
	"context"

	"jafar/internal/models"
)

func (c *Client) SearchOpenPositions(ctx context.Context, accountID int) ([]models.Position, error) {
	body := map[string]any{
		"accountId": accountID,
	}

	var resp struct {
		envelope
		Positions []models.Position `json:"positions"`
	}

	if err := c.doRequest(ctx, "/api/Position/searchOpen", body, true, &resp); err != nil {
		return nil, err
	}

	return resp.Positions, nil
}
