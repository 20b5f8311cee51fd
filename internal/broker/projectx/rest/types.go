package rest

import (
	"net/http"

	"jafar/internal/logger"
)

type Client struct {
	baseURL    string
	userName   string
	apiKey     string
	token      string
	httpClient *http.Client
	log        *logger.Logger
}

// envelope carries the status fields every gateway endpoint returns next to
// its payload. Endpoint response structs embed it.
type envelope struct {
	Success      bool    `json:"success"`
	ErrorCode    int     `json:"errorCode"`
	ErrorMessage *string `json:"errorMessage"`
}
