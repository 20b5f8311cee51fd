package rest

import (
	"net/http"
	"time"

	"jafar/internal/logger"
)

func New(baseURL, userName, apiKey string, log *logger.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		userName: userName,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// Token exposes the current session token for the real-time hubs.
func (c *Client) Token() string {
	return c.token
}
