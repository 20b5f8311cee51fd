package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"jafar/internal/models"
)

func (s *Client) readLoop() {
	s.logEntry().Debug("readLoop запущен.")

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logEntry().WithError(err).Warn("Ошибка чтения маркет-хаба.")

			if !s.reconnect() {
				return
			}
			continue
		}

		for _, frame := range bytes.Split(data, []byte{recordSeparator}) {
			if len(frame) == 0 {
				continue
			}
			s.handleFrame(frame)
		}
	}
}

func (s *Client) handleFrame(frame []byte) {
	var msg hubMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		s.logEntry().WithError(err).Warn("Не удалось разобрать сообщение маркет-хаба.")
		return
	}

	switch msg.Type {
	case msgPing:
		writeFrame(s.conn, invocation{Type: msgPing})
	case msgClose:
		s.logEntry().WithField("error", msg.Error).Warn("Маркет-хаб закрыл соединение.")
	case msgInvocation:
		if msg.Target == "GatewayQuote" {
			s.handleQuote(msg)
		}
	}
}

// GatewayQuote arrives as [contractId, quote].
func (s *Client) handleQuote(msg hubMessage) {
	if len(msg.Arguments) < 2 {
		return
	}

	var contractID string
	if err := json.Unmarshal(msg.Arguments[0], &contractID); err != nil {
		return
	}

	var quote models.Quote
	if err := json.Unmarshal(msg.Arguments[1], &quote); err != nil {
		s.logEntry().WithError(err).Warn("Не удалось разобрать котировку.")
		return
	}
	quote.ContractID = contractID

	select {
	case s.quotes <- quote:
	default:
		// Консьюмер отстал, котировка устарела мгновенно — пропускаем.
	}
}

func (s *Client) reconnect() bool {
	backoff := s.reconnectMin

	for {
		select {
		case <-s.stopCh:
			return false
		default:
		}

		s.logEntry().Info("Попытка переподключения к маркет-хабу.")

		time.Sleep(backoff)

		if s.conn != nil {
			s.conn.Close()
		}

		if err := s.dial(context.Background()); err != nil {
			s.logEntry().WithError(err).Warn("Не удалось переподключиться к маркет-хабу.")
			backoff = s.nextBackoff(backoff)
			continue
		}

		if s.contractID != "" {
			if err := s.Subscribe(s.contractID); err != nil {
				s.logEntry().WithError(err).Warn("Не удалось повторно подписаться на котировки.")
				backoff = s.nextBackoff(backoff)
				continue
			}
		}

		s.logEntry().Info("Маркет-хаб переподключён, подписка восстановлена.")
		return true
	}
}

func (s *Client) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > s.reconnectMax {
		return s.reconnectMax
	}
	return next
}
