package rest

import (
	"context"
	"time"

	"jafar/internal/broker"
	"jafar/internal/models"
)

func (c *Client) RetrieveBars(ctx context.Context, req broker.BarRequest) ([]models.Bar, error) {
	unitNumber := req.UnitNumber
	if unitNumber == 0 {
		unitNumber = 1
	}

	body := map[string]any{
		"contractId":        req.ContractID,
		"live":              false,
		"startTime":         req.Start.UTC().Format(time.RFC3339),
		"endTime":           req.End.UTC().Format(time.RFC3339),
		"unit":              int(req.Unit),
		"unitNumber":        unitNumber,
		"limit":             req.Limit,
		"includePartialBar": req.Partial,
	}

	var resp struct {
		envelope
		Bars []models.Bar `json:"bars"`
	}

	if err := c.doRequest(ctx, "/api/History/retrieveBars", body, true, &resp); err != nil {
		return nil, err
	}

	return resp.Bars, nil
}
