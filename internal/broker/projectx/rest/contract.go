package rest

import (
	"context"
	"fmt"

	"jafar/internal/models"
)

func (c *Client) SearchContracts(ctx context.Context, searchText string) ([]models.Contract, error) {
	body := map[string]any{
		"searchText": searchText,
		"live":       false,
	}

	var resp struct {
		envelope
		Contracts []models.Contract `json:"contracts"`
	}

	if err := c.doRequest(ctx, "/api/Contract/search", body, true, &resp); err != nil {
		return nil, err
	}

	return resp.Contracts, nil
}

func (c *Client) ContractByID(ctx context.Context, contractID string) (models.Contract, error) {
	body := map[string]any{
		"contractId": contractID,
	}

	var resp struct {
		envelope
		Contracts []models.Contract `json:"contracts"`
	}

	if err := c.doRequest(ctx, "/api/Contract/searchById", body, true, &resp); err != nil {
		return models.Contract{}, err
	}

	if len(resp.Contracts) == 0 {
		return models.Contract{}, fmt.Errorf("Контракт не найден: %s", contractID)
	}

	return resp.Contracts[0], nil
}
