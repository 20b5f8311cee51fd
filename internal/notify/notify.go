// Package notify delivers human-facing alerts. Both channels are
// best-effort and fire-and-forget: a delivery failure is logged and never
// propagated to the caller.
package notify

import (
	"jafar/internal/config"
	"jafar/internal/logger"
)

type Notifier interface {
	Message(text string)
	Speak(text string)
}

// Hub fans a notification out to Telegram and the voice assistant.
type Hub struct {
	telegram *Telegram
	voice    *Voice
}

var _ Notifier = (*Hub)(nil)

func NewHub(cfg *config.Config, log *logger.Logger) *Hub {
	return &Hub{
		telegram: NewTelegram(cfg.Telegram, log),
		voice:    NewVoice(cfg.Voice, log),
	}
}

func (h *Hub) Message(text string) {
	h.telegram.Send(text)
}

func (h *Hub) Speak(text string) {
	h.voice.Speak(text)
}
