package rest

import (
	"context"
	"fmt"
)

// Login exchanges the API key for a session token.
func (c *Client) Login(ctx context.Context) error {
	body := map[string]any{
		"userName": c.userName,
		"apiKey":   c.apiKey,
	}

	var resp struct {
		envelope
		Token string `json:"token"`
	}

	status, err := c.post(ctx, "/api/Auth/loginKey", body, false, &resp)
	if err != nil {
		return fmt.Errorf("Не удалось аутентифицироваться в шлюзе: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("Аутентификация отклонена шлюзом: статус %d", status)
	}
	if failed, code, msg := extractEnvelope(&resp); failed {
		return fmt.Errorf("Аутентификация отклонена шлюзом: %s (code=%d)", msg, code)
	}
	if resp.Token == "" {
		return fmt.Errorf("Шлюз не вернул токен сессии")
	}

	c.token = resp.Token
	c.log.WithComponent("projectx").Debug("Сессия шлюза открыта.")
	return nil
}
