// Package news gathers market context for the advisor prompt: headline news
// from Marketaux and the upcoming economic calendar. Fetchers return
// human-readable blocks ready for prompt embedding.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jafar/internal/config"
	"jafar/internal/logger"
)

const (
	marketauxURL = "https://api.marketaux.com/v1/news/all"

	// Marketaux free plan caps articles per request.
	marketauxLimit = 3

	newsFreshnessWindow = 48 * time.Hour
)

type Fetcher struct {
	apiKey      string
	newsURL     string
	calendarURL string
	httpClient  *http.Client
	log         *logger.Logger
}

func NewFetcher(cfg config.NewsConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		apiKey:      cfg.MarketauxAPIKey,
		newsURL:     marketauxURL,
		calendarURL: cfg.CalendarURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type marketauxArticle struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	PublishedAt string `json:"published_at"`
}

type marketauxResponse struct {
	Data []marketauxArticle `json:"data"`
}

// Headlines fetches recent news mentioning the instrument and renders them
// as a bullet list. Stale articles are dropped.
func (f *Fetcher) Headlines(ctx context.Context, instrument string) (string, error) {
	if f.apiKey == "" {
		return "Marketaux API key не настроен.", nil
	}

	q := url.Values{}
	q.Set("api_token", f.apiKey)
	q.Set("search", instrument)
	q.Set("language", "en")
	q.Set("limit", fmt.Sprint(marketauxLimit))

	var resp marketauxResponse
	if err := f.getJSON(ctx, f.newsURL+"?"+q.Encode(), &resp); err != nil {
		return "", fmt.Errorf("ошибка запроса новостей Marketaux: %w", err)
	}

	cutoff := time.Now().UTC().Add(-newsFreshnessWindow)
	var lines []string
	for _, item := range resp.Data {
		published, err := time.Parse(time.RFC3339, item.PublishedAt)
		if err != nil || published.Before(cutoff) {
			continue
		}
		snippet := item.Snippet
		if snippet == "" {
			snippet = "N/A"
		}
		lines = append(lines, fmt.Sprintf("- (Marketaux) %s: %s", item.Title, snippet))
	}

	if len(lines) == 0 {
		return fmt.Sprintf("Свежих новостей по '%s' не найдено.", instrument), nil
	}

	f.log.WithComponent("news").WithField("count", len(lines)).Info("Новости загружены.")
	return strings.Join(lines, "\n"), nil
}

type calendarEvent struct {
	Title    string `json:"title"`
	Country  string `json:"country"`
	Date     string `json:"date"`
	Impact   string `json:"impact"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
}

// Calendar fetches the weekly economic calendar feed and renders the
// high- and medium-impact events within the next 24 hours.
func (f *Fetcher) Calendar(ctx context.Context) (string, error) {
	if f.calendarURL == "" {
		return "Экономический календарь не настроен.", nil
	}

	var events []calendarEvent
	if err := f.getJSON(ctx, f.calendarURL, &events); err != nil {
		return "", fmt.Errorf("ошибка запроса экономического календаря: %w", err)
	}

	now := time.Now().UTC()
	horizon := now.Add(24 * time.Hour)

	var lines []string
	for _, ev := range events {
		impact := strings.ToLower(ev.Impact)
		if impact != "high" && impact != "medium" {
			continue
		}
		when, err := time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			continue
		}
		if when.Before(now) || when.After(horizon) {
			continue
		}
		line := fmt.Sprintf("- %s [%s/%s] %s", when.Format("Mon 15:04 MST"), ev.Country, ev.Impact, ev.Title)
		if ev.Forecast != "" {
			line += fmt.Sprintf(" (прогноз %s, пред. %s)", ev.Forecast, ev.Previous)
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return "Важных событий в ближайшие 24 часа нет.", nil
	}
	return strings.Join(lines, "\n"), nil
}

func (f *Fetcher) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("неожиданный статус ответа: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
