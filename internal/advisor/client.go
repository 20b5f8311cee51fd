// Package advisor talks to the Gemini REST API: it sends the assembled
// market-context prompt and turns the free-text answer into a structured
// trade plan.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jafar/internal/config"
	"jafar/internal/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func New(cfg config.AdvisorConfig, log *logger.Logger) *Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: log,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends one prompt and returns the raw answer text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY не настроен")
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ошибка Gemini API %d: %s", resp.StatusCode, string(body))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("пустой ответ Gemini")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Advise asks for a trade plan and parses the JSON out of the answer. If the
// first answer carries no valid JSON, the model gets one self-correction
// request with its own previous answer quoted back.
func (c *Client) Advise(ctx context.Context, prompt string) (*Advice, error) {
	raw, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	advice, parseErr := extractAdvice(raw)
	if parseErr == nil {
		return advice, nil
	}

	c.log.WithComponent("advisor").WithError(parseErr).Warn("В ответе Gemini не найден валидный JSON, отправляется повторный запрос.")

	correction := fmt.Sprintf(
		"Менга юборган жавобингни қайта кўриб чиқ. Унда яроқли JSON формати мавжуд эмас.\n"+
			"Менга фақат ва фақат яроқли JSON жавобини қайтар, ҳеч қандай изоҳларсиз.\n"+
			"Мана олдинги жавобинг:\n```\n%s\n```\nФақат JSON жавобини қайтар:", raw)

	corrected, err := c.Generate(ctx, correction)
	if err != nil {
		return nil, err
	}

	advice, parseErr = extractAdvice(corrected)
	if parseErr != nil {
		return nil, fmt.Errorf("ответ Gemini не в формате JSON (две попытки): %w", parseErr)
	}
	return advice, nil
}
