// Package stream implements a thin SignalR-over-websocket client for the
// gateway market hub. It is used only for the live quote feed of the
// `jafar stream` command; the escort agent deliberately stays on REST
// polling and never touches this package.
package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"jafar/internal/logger"
	"jafar/internal/models"
)

type Client struct {
	url        string
	token      string
	contractID string

	conn         *websocket.Conn
	quotes       chan models.Quote
	stopCh       chan struct{}
	log          *logger.Logger
	reconnectMin time.Duration
	reconnectMax time.Duration
}

func New(url, token string, log *logger.Logger) *Client {
	return &Client{
		url:          url,
		token:        token,
		log:          log,
		quotes:       make(chan models.Quote, 100),
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

// Connect dials the market hub, completes the SignalR handshake and starts
// the read loop.
func (s *Client) Connect(ctx context.Context) error {
	s.logEntry().WithField("url", s.url).Info("Подключение к маркет-хабу.")

	if err := s.dial(ctx); err != nil {
		return err
	}

	s.logEntry().Info("Соединение с маркет-хабом установлено.")

	go s.readLoop()

	return nil
}

func (s *Client) dial(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/hubs/market?access_token=%s", s.url, s.token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к маркет-хабу: %w", err)
	}

	conn.SetReadLimit(2 << 20)

	if err := writeFrame(conn, handshakeRequest{Protocol: "json", Version: 1}); err != nil {
		conn.Close()
		return fmt.Errorf("Не удалось выполнить рукопожатие SignalR: %w", err)
	}

	// The hub answers the handshake with a single (normally empty) frame.
	if _, _, err := conn.ReadMessage(); err != nil {
		conn.Close()
		return fmt.Errorf("Маркет-хаб не подтвердил рукопожатие: %w", err)
	}

	s.conn = conn
	return nil
}

// Subscribe requests quote updates for one contract.
func (s *Client) Subscribe(contractID string) error {
	s.contractID = contractID

	return writeFrame(s.conn, invocation{
		Type:      msgInvocation,
		Target:    "SubscribeContractQuotes",
		Arguments: []any{contractID},
	})
}

func (s *Client) Quotes() <-chan models.Quote {
	return s.quotes
}

func (s *Client) Close() {
	close(s.stopCh)
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Client) logEntry() *logrus.Entry {
	entry := s.log.WithComponent("market_hub")
	if s.contractID != "" {
		entry = entry.WithField("contract_id", s.contractID)
	}
	return entry
}
