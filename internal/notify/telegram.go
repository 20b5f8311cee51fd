package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jafar/internal/config"
	"jafar/internal/logger"
)

// Telegram caps messages at 4096 characters; long analyses are chunked.
const telegramMessageLimit = 4096

type Telegram struct {
	token      string
	chatID     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewTelegram(cfg config.TelegramConfig, log *logger.Logger) *Telegram {
	return &Telegram{
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Send delivers text to the configured chat, splitting it into chunks if it
// exceeds the API limit.
func (t *Telegram) Send(text string) {
	if t.token == "" || t.chatID == "" {
		t.log.WithComponent("telegram").Debug("Telegram не настроен, уведомление пропущено.")
		return
	}

	for _, chunk := range splitMessage(text, telegramMessageLimit) {
		t.sendChunk(chunk)
	}
}

func (t *Telegram) sendChunk(text string) {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	payload, _ := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})

	resp, err := t.httpClient.Post(apiURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.log.WithComponent("telegram").WithError(err).Warn("Не удалось отправить сообщение в Telegram.")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.log.WithComponent("telegram").WithField("status", resp.Status).Warn("Telegram API вернул ошибку.")
	}
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		// Prefer breaking on a newline so Markdown blocks stay intact.
		for i := limit - 1; i > limit/2; i-- {
			if text[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
