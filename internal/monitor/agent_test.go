package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jafar/internal/broker"
	"jafar/internal/logger"
	"jafar/internal/models"
)

type fakeClient struct {
	openPositions func(accountID int) ([]models.Position, error)
	openOrders    func(accountID int) ([]models.Order, error)
	contractByID  func(contractID string) (models.Contract, error)
	retrieveBars  func(req broker.BarRequest) ([]models.Bar, error)
}

func (f *fakeClient) SearchAccounts(ctx context.Context, onlyActive bool) ([]models.Account, error) {
	return nil, nil
}

func (f *fakeClient) SearchOpenPositions(ctx context.Context, accountID int) ([]models.Position, error) {
	if f.openPositions == nil {
		return nil, nil
	}
	return f.openPositions(accountID)
}

func (f *fakeClient) SearchOpenOrders(ctx context.Context, accountID int) ([]models.Order, error) {
	if f.openOrders == nil {
		return nil, nil
	}
	return f.openOrders(accountID)
}

func (f *fakeClient) SearchOrders(ctx context.Context, accountID int, start, end time.Time) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeClient) SearchTrades(ctx context.Context, accountID int, start, end time.Time) ([]models.Trade, error) {
	return nil, nil
}

func (f *fakeClient) SearchContracts(ctx context.Context, searchText string) ([]models.Contract, error) {
	return nil, nil
}

func (f *fakeClient) ContractByID(ctx context.Context, contractID string) (models.Contract, error) {
	if f.contractByID == nil {
		return models.Contract{}, errors.New("нет контракта")
	}
	return f.contractByID(contractID)
}

func (f *fakeClient) RetrieveBars(ctx context.Context, req broker.BarRequest) ([]models.Bar, error) {
	if f.retrieveBars == nil {
		return nil, nil
	}
	return f.retrieveBars(req)
}

func (f *fakeClient) PlaceOrder(ctx context.Context, req broker.OrderRequest) (int, error) {
	return 0, errors.New("не поддерживается")
}

type spyNotifier struct {
	messages []string
	speeches []string
}

func (s *spyNotifier) Message(text string) { s.messages = append(s.messages, text) }
func (s *spyNotifier) Speak(text string)   { s.speeches = append(s.speeches, text) }

func (s *spyNotifier) messagesContaining(substr string) int {
	n := 0
	for _, m := range s.messages {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

func ptr(v float64) *float64 { return &v }

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "panic"})
}

func newTestAgent(client broker.Client, notifier *spyNotifier) *Agent {
	a := New(Params{
		OrderID:      42,
		AccountID:    7,
		ContractID:   "CON.F.US.MGC.Q25",
		ExpectedSide: models.SideBuy,
	}, client, notifier, testLogger())
	a.pendingInterval = time.Millisecond
	a.activeInterval = time.Millisecond
	return a
}

func TestPendingStaysWhenNoPosition(t *testing.T) {
	spy := &spyNotifier{}
	agent := newTestAgent(&fakeClient{}, spy)

	agent.handlePending(context.Background())

	assert.Equal(t, StatePending, agent.State())
	assert.Empty(t, spy.messages)
	assert.Empty(t, spy.speeches)
}

func TestPendingSurvivesBrokerError(t *testing.T) {
	spy := &spyNotifier{}
	client := &fakeClient{
		openPositions: func(int) ([]models.Position, error) {
			return nil, errors.New("timeout")
		},
	}
	agent := newTestAgent(client, spy)

	agent.handlePending(context.Background())

	assert.Equal(t, StatePending, agent.State())
	assert.Empty(t, spy.messages)
}

func TestFillTransitionDiscoversLevels(t *testing.T) {
	spy := &spyNotifier{}
	client := &fakeClient{
		openPositions: func(int) ([]models.Position, error) {
			return []models.Position{{ID: 1, ContractID: "CON.F.US.MGC.Q25", Size: 2}}, nil
		},
		openOrders: func(int) ([]models.Order, error) {
			return []models.Order{
				{ID: 100, ContractID: "CON.F.US.MGC.Q25", Type: models.OrderTypeStop, StopPrice: ptr(3310.5)},
				{ID: 101, ContractID: "CON.F.US.MGC.Q25", Type: models.OrderTypeLimit, LimitPrice: ptr(3350.0)},
				{ID: 102, ContractID: "CON.F.US.NQ.Z25", Type: models.OrderTypeStop, StopPrice: ptr(1.0)},
			}, nil
		},
		contractByID: func(string) (models.Contract, error) {
			return models.Contract{ID: "CON.F.US.MGC.Q25", TickSize: 0.1}, nil
		},
	}
	agent := newTestAgent(client, spy)

	agent.handlePending(context.Background())

	assert.Equal(t, StateActive, agent.State())
	require.NotNil(t, agent.stopLoss)
	require.NotNil(t, agent.takeProfit)
	assert.Equal(t, 3310.5, *agent.stopLoss)
	assert.Equal(t, 3350.0, *agent.takeProfit)
	assert.Equal(t, []string{"Позиция очилди!"}, spy.speeches)
	assert.Equal(t, 1, spy.messagesContaining("ИСПОЛНЕН ОРДЕР #42"))
}

func TestFillTransitionWithoutProtectiveOrders(t *testing.T) {
	spy := &spyNotifier{}
	client := &fakeClient{
		openPositions: func(int) ([]models.Position, error) {
			return []models.Position{{ID: 1, ContractID: "CON.F.US.MGC.Q25", Size: 1}}, nil
		},
		openOrders: func(int) ([]models.Order, error) {
			return nil, errors.New("gateway down")
		},
	}
	agent := newTestAgent(client, spy)

	agent.handlePending(context.Background())

	// The transition itself must not be blocked by a discovery failure.
	assert.Equal(t, StateActive, agent.State())
	assert.Nil(t, agent.stopLoss)
	assert.Nil(t, agent.takeProfit)
	assert.Equal(t, defaultTickSize, agent.tickSize)
	assert.Equal(t, 1, spy.messagesContaining("ИСПОЛНЕН ОРДЕР #42"))
}

func TestProximityBoundaryIsInclusive(t *testing.T) {
	// tickSize 0.25 gives a threshold of exactly 3.75.
	cases := []struct {
		name  string
		price float64
		alert bool
	}{
		{"inside", 103.0, true},
		{"exactly on boundary", 103.75, true},
		{"just outside", 103.76, false},
		{"below, on boundary", 96.25, true},
		{"below, outside", 96.24, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spy := &spyNotifier{}
			agent := newTestAgent(&fakeClient{}, spy)
			agent.state = StateActive
			agent.tickSize = 0.25
			agent.stopLoss = ptr(100.0)

			agent.checkPriceProximity(tc.price)

			if tc.alert {
				assert.Equal(t, 1, spy.messagesContaining("Stop-Loss"))
				assert.Equal(t, []string{"Диққат! Нарх стоп-лоссга яқинлашмоқда!"}, spy.speeches)
			} else {
				assert.Empty(t, spy.messages)
				assert.Empty(t, spy.speeches)
			}
		})
	}
}

func TestTakeProfitAlertIsSilent(t *testing.T) {
	spy := &spyNotifier{}
	agent := newTestAgent(&fakeClient{}, spy)
	agent.state = StateActive
	agent.takeProfit = ptr(3350.0)

	agent.checkPriceProximity(3349.0)

	assert.Equal(t, 1, spy.messagesContaining("Take-Profit"))
	assert.Empty(t, spy.speeches)
}

func TestNoAlertsWithoutLevels(t *testing.T) {
	spy := &spyNotifier{}
	agent := newTestAgent(&fakeClient{}, spy)
	agent.state = StateActive

	agent.checkPriceProximity(100.0)

	assert.Empty(t, spy.messages)
	assert.Empty(t, spy.speeches)
}

func TestZeroCloseIsIgnored(t *testing.T) {
	spy := &spyNotifier{}
	agent := newTestAgent(&fakeClient{}, spy)
	agent.state = StateActive
	agent.stopLoss = ptr(0.5)

	agent.checkPriceProximity(0)

	assert.Empty(t, spy.messages)
}

func TestActiveSkipsCycleWhenNoBar(t *testing.T) {
	spy := &spyNotifier{}
	client := &fakeClient{
		openPositions: func(int) ([]models.Position, error) {
			return []models.Position{{ID: 1, ContractID: "CON.F.US.MGC.Q25", Size: 1}}, nil
		},
		retrieveBars: func(broker.BarRequest) ([]models.Bar, error) {
			return nil, nil
		},
	}
	agent := newTestAgent(client, spy)
	agent.state = StateActive
	agent.stopLoss = ptr(100.0)

	agent.handleActive(context.Background())

	assert.Equal(t, StateActive, agent.State())
	assert.Empty(t, spy.messages)
}

func TestActiveToCompletedWhenPositionGone(t *testing.T) {
	spy := &spyNotifier{}
	client := &fakeClient{
		openPositions: func(int) ([]models.Position, error) {
			return []models.Position{{ID: 9, ContractID: "CON.F.US.NQ.Z25", Size: 1}}, nil
		},
	}
	agent := newTestAgent(client, spy)
	agent.state = StateActive

	agent.handleActive(context.Background())

	assert.Equal(t, StateCompleted, agent.State())
	assert.Equal(t, []string{"Савдо ёпилди!"}, spy.speeches)
	assert.Equal(t, 1, spy.messagesContaining("ПОЗИЦИЯ ЗАКРЫТА"))
}

func TestRunFullLifecycle(t *testing.T) {
	spy := &spyNotifier{}

	pendingPolls := 0
	activePolls := 0
	client := &fakeClient{
		openOrders: func(int) ([]models.Order, error) {
			return []models.Order{
				{ID: 100, ContractID: "CON.F.US.MGC.Q25", Type: models.OrderTypeStop, StopPrice: ptr(3310.0)},
			}, nil
		},
		contractByID: func(string) (models.Contract, error) {
			return models.Contract{TickSize: 0.1}, nil
		},
	}
	client.openPositions = func(int) ([]models.Position, error) {
		if client.retrieveBars == nil {
			// Pending phase: the order fills on the second poll.
			pendingPolls++
			if pendingPolls < 2 {
				return nil, nil
			}
			client.retrieveBars = func(broker.BarRequest) ([]models.Bar, error) {
				activePolls++
				switch activePolls {
				case 1:
					return []models.Bar{{Close: 3325.0}}, nil // far from the stop
				default:
					return []models.Bar{{Close: 3311.0}}, nil // within 15 ticks
				}
			}
		} else if activePolls >= 2 {
			return nil, nil // position closed
		}
		return []models.Position{{ID: 1, ContractID: "CON.F.US.MGC.Q25", Size: 2}}, nil
	}

	agent := newTestAgent(client, spy)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, agent.Run(ctx))

	assert.Equal(t, StateCompleted, agent.State())
	assert.Equal(t, 1, spy.messagesContaining("ИСПОЛНЕН ОРДЕР #42"))
	assert.Equal(t, 1, spy.messagesContaining("Stop-Loss"))
	assert.Equal(t, 1, spy.messagesContaining("ПОЗИЦИЯ ЗАКРЫТА"))
	assert.Equal(t, []string{
		"Позиция очилди!",
		"Диққат! Нарх стоп-лоссга яқинлашмоқда!",
		"Савдо ёпилди!",
	}, spy.speeches)
}

func TestRunReportsPanic(t *testing.T) {
	spy := &spyNotifier{}
	client := &fakeClient{
		openPositions: func(int) ([]models.Position, error) {
			panic("что-то пошло не так")
		},
	}
	agent := newTestAgent(client, spy)

	err := agent.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, spy.messagesContaining("КРИТИЧЕСКАЯ ОШИБКА АГЕНТА"))
	assert.Equal(t, 1, spy.messagesContaining("#42"))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	spy := &spyNotifier{}
	agent := newTestAgent(&fakeClient{}, spy)
	agent.pendingInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := agent.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatePending, agent.State())
}
