package rest

import (
	"context"

	"jafar/internal/models"
)

func (c *Client) SearchAccounts(ctx context.Context, onlyActive bool) ([]models.Account, error) {
	body := map[string]any{
		"onlyActiveAccounts": onlyActive,
	}

	var resp struct {
		envelope
		Accounts []models.Account `json:"accounts"`
	}

	if err := c.doRequest(ctx, "/api/Account/search", body, true, &resp); err != nil {
		return nil, err
	}

	return resp.Accounts, nil
}
