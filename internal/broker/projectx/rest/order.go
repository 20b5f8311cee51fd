package rest

import (
	"context"
	"time"

	"jafar/internal/broker"
	"jafar/internal/models"
)

func (c *Client) SearchOpenOrders(ctx context.Context, accountID int) ([]models.Order, error) {
	body := map[string]any{
		"accountId": accountID,
	}

	var resp struct {
		envelope
		Orders []models.Order `json:"orders"`
	}

	if err := c.doRequest(ctx, "/api/Order/searchOpen", body, true, &resp); err != nil {
		return nil, err
	}

	return resp.Orders, nil
}

func (c *Client) SearchOrders(ctx context.Context, accountID int, start, end time.Time) ([]models.Order, error) {
	body := map[string]any{
		"accountId":      accountID,
		"startTimestamp": start.UTC().Format(time.RFC3339),
		"endTimestamp":   end.UTC().Format(time.RFC3339),
	}

	var resp struct {
		envelope
		Orders []models.Order `json:"orders"`
	}

	if err := c.doRequest(ctx, "/api/Order/search", body, true, &resp); err != nil {
		return nil, err
	}

	return resp.Orders, nil
}

func (c *Client) SearchTrades(ctx context.Context, accountID int, start, end time.Time) ([]models.Trade, error) {
	body := map[string]any{
		"accountId":      accountID,
		"startTimestamp": start.UTC().Format(time.RFC3339),
		"endTimestamp":   end.UTC().Format(time.RFC3339),
	}

	var resp struct {
		envelope
		Trades []models.Trade `json:"trades"`
	}

	if err := c.doRequest(ctx, "/api/Trade/search", body, true, &resp); err != nil {
		return nil, err
	}

	return resp.Trades, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (int, error) {
	body := map[string]any{
		"accountId":  req.AccountID,
		"contractId": req.ContractID,
		"type":       int(req.Type),
		"side":       req.Side.Code(),
		"size":       req.Size,
	}

	if req.LimitPrice != nil {
		body["limitPrice"] = *req.LimitPrice
	}
	if req.StopPrice != nil {
		body["stopPrice"] = *req.StopPrice
	}
	if req.LinkedOrderID != nil {
		body["linkedOrderId"] = *req.LinkedOrderID
	}
	if req.CustomTag != "" {
		body["customTag"] = req.CustomTag
	}

	var resp struct {
		envelope
		OrderID int `json:"orderId"`
	}

	if err := c.doRequest(ctx, "/api/Order/place", body, true, &resp); err != nil {
		return 0, err
	}

	return resp.OrderID, nil
}
