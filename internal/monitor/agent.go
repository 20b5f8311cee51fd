// Package monitor contains the trade escort agent: a single-order lifecycle
// watcher that waits for a resting order to fill, then follows the open
// position until it is closed, alerting when price approaches the protective
// levels. One agent runs per tracked order, in its own process.
package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"jafar/internal/broker"
	"jafar/internal/logger"
	"jafar/internal/models"
	"jafar/internal/notify"
)

type State string

const (
	StatePending   State = "PENDING"
	StateActive    State = "ACTIVE"
	StateCompleted State = "COMPLETED"
)

const (
	pendingCheckInterval = 20 * time.Second
	activeCheckInterval  = 60 * time.Second

	// Alert when price is within this many ticks of the stop or target.
	priceProximityTicks = 15

	defaultTickSize = 0.1
)

type Params struct {
	OrderID      int
	AccountID    int
	ContractID   string
	ExpectedSide models.Side
}

type Agent struct {
	orderID      int
	accountID    int
	contractID   string
	expectedSide models.Side

	state State

	client   broker.Client
	notifier notify.Notifier
	log      *logger.Logger

	position   *models.Position
	stopLoss   *float64
	takeProfit *float64
	tickSize   float64

	pendingInterval time.Duration
	activeInterval  time.Duration
}

func New(p Params, client broker.Client, notifier notify.Notifier, log *logger.Logger) *Agent {
	return &Agent{
		orderID:         p.OrderID,
		accountID:       p.AccountID,
		contractID:      p.ContractID,
		expectedSide:    p.ExpectedSide,
		state:           StatePending,
		client:          client,
		notifier:        notifier,
		log:             log,
		tickSize:        defaultTickSize,
		pendingInterval: pendingCheckInterval,
		activeInterval:  activeCheckInterval,
	}
}

func (a *Agent) State() State {
	return a.state
}

// Run drives the state machine until the position is closed. A panic
// escaping a handler is reported once to Telegram and returned as an error;
// the agent never restarts itself.
func (a *Agent) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("критическая ошибка в главном цикле агента: %v", r)
			a.entry().WithField("panic", r).Error("В главном цикле агента произошла критическая ошибка.")
			a.notifier.Message(fmt.Sprintf("🚨 **КРИТИЧЕСКАЯ ОШИБКА АГЕНТА**\nОрдер: #%d\nОшибка: %v", a.orderID, r))
		}
		a.entry().Info("Работа агента завершена.")
	}()

	a.entry().WithFields(logrus.Fields{
		"side":  a.expectedSide,
		"state": a.state,
	}).Info("Агент запущен.")

	for a.state != StateCompleted {
		var interval time.Duration

		switch a.state {
		case StatePending:
			a.handlePending(ctx)
			interval = a.pendingInterval
		case StateActive:
			a.handleActive(ctx)
			interval = a.activeInterval
		}

		if a.state == StateCompleted {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return nil
}

// handlePending checks whether the tracked order has been filled: the fill
// is observed indirectly, as an open position on the contract.
func (a *Agent) handlePending(ctx context.Context) {
	a.entry().Info("Проверка статуса ордера...")

	positions, err := a.client.SearchOpenPositions(ctx, a.accountID)
	if err != nil {
		a.entry().WithError(err).Warn("Ошибка при проверке статуса ордера.")
		return
	}

	for i := range positions {
		if positions[i].ContractID == a.contractID {
			a.position = &positions[i]
			a.transitionToActive(ctx)
			return
		}
	}

	a.entry().Info("Ордер все еще в ожидании (позиция не найдена).")
}

// transitionToActive discovers the protective stop/target levels and the
// contract tick size. Discovery is best-effort: any failure here is logged
// and the transition, including its notifications, still happens.
func (a *Agent) transitionToActive(ctx context.Context) {
	a.state = StateActive
	a.entry().Info("ОБНАРУЖЕНО ИСПОЛНЕНИЕ ОРДЕРА! Позиция открыта.")

	a.discoverProtectiveOrders(ctx)
	a.refreshTickSize(ctx)

	a.entry().WithFields(logrus.Fields{
		"stop_loss":   formatLevel(a.stopLoss),
		"take_profit": formatLevel(a.takeProfit),
		"tick_size":   a.tickSize,
	}).Info("Позиция активна.")

	a.notifier.Speak("Позиция очилди!")
	a.notifier.Message(fmt.Sprintf(
		"✅ **ИСПОЛНЕН ОРДЕР #%d**\n\nОткрыта **%s** позиция по **%s**.\nАгент Jafar переходит в режим активного сопровождения.",
		a.orderID, a.expectedSide, a.contractID))

	a.entry().Info("Уведомления об открытии отправлены. Состояние изменено на ACTIVE.")
}

// discoverProtectiveOrders scans the working orders on the contract and
// classifies them by order-type code: stop-kind orders carry the stop loss,
// limit orders carry the take profit. If several orders of one kind exist,
// the first one returned by the gateway wins.
func (a *Agent) discoverProtectiveOrders(ctx context.Context) {
	orders, err := a.client.SearchOpenOrders(ctx, a.accountID)
	if err != nil {
		a.entry().WithError(err).Error("Не удалось получить детали SL/TP для активной позиции.")
		return
	}

	for _, order := range orders {
		if order.ContractID != a.contractID {
			continue
		}
		switch {
		case order.Type.IsStopKind():
			if a.stopLoss == nil && order.StopPrice != nil {
				a.stopLoss = order.StopPrice
			}
		case order.Type == models.OrderTypeLimit:
			if a.takeProfit == nil && order.LimitPrice != nil {
				a.takeProfit = order.LimitPrice
			}
		}
	}
}

func (a *Agent) refreshTickSize(ctx context.Context) {
	contract, err := a.client.ContractByID(ctx, a.contractID)
	if err != nil {
		a.entry().WithError(err).Warn("Не удалось получить tickSize контракта, используется значение по умолчанию.")
		return
	}
	if contract.TickSize > 0 {
		a.tickSize = contract.TickSize
	}
}

// handleActive verifies the position still exists, then inspects the last
// closed 1-minute bar for proximity to the protective levels.
func (a *Agent) handleActive(ctx context.Context) {
	a.entry().Info("Проверка статуса активной позиции (анализ 1-мин свечи)...")

	positions, err := a.client.SearchOpenPositions(ctx, a.accountID)
	if err != nil {
		a.entry().WithError(err).Warn("Ошибка при обработке активного состояния.")
		return
	}

	found := false
	for _, p := range positions {
		if p.ContractID == a.contractID {
			found = true
			break
		}
	}
	if !found {
		a.transitionToCompleted()
		return
	}

	end := time.Now().UTC()
	bars, err := a.client.RetrieveBars(ctx, broker.BarRequest{
		ContractID: a.contractID,
		Start:      end.Add(-time.Minute),
		End:        end,
		Unit:       broker.BarUnitMinute,
		UnitNumber: 1,
		Limit:      1,
	})
	if err != nil {
		a.entry().WithError(err).Warn("Ошибка при запросе последней свечи.")
		return
	}
	if len(bars) == 0 {
		a.entry().Warn("Не удалось получить данные по последней свече.")
		return
	}

	bar := bars[0]
	a.entry().WithFields(logrus.Fields{
		"close": bar.Close,
		"open":  bar.Open,
		"high":  bar.High,
		"low":   bar.Low,
	}).Info("Последняя 1-мин свеча получена.")

	a.checkPriceProximity(bar.Close)
}

// checkPriceProximity raises alerts when price comes within
// priceProximityTicks × tickSize of a protective level. The boundary is
// inclusive, and alerts repeat on every tick while price stays in range.
func (a *Agent) checkPriceProximity(currentPrice float64) {
	if currentPrice == 0 {
		return
	}

	threshold := priceProximityTicks * a.tickSize

	if a.stopLoss != nil && math.Abs(currentPrice-*a.stopLoss) <= threshold {
		a.entry().WithFields(logrus.Fields{
			"price":     currentPrice,
			"stop_loss": *a.stopLoss,
		}).Warn("ЦЕНА ПРИБЛИЖАЕТСЯ К STOP-LOSS!")
		a.notifier.Speak("Диққат! Нарх стоп-лоссга яқинлашмоқда!")
		a.notifier.Message(fmt.Sprintf("⚠️ **%s**: Цена (%g) приближается к Stop-Loss (%g)!",
			a.contractID, currentPrice, *a.stopLoss))
	}

	if a.takeProfit != nil && math.Abs(currentPrice-*a.takeProfit) <= threshold {
		a.entry().WithFields(logrus.Fields{
			"price":       currentPrice,
			"take_profit": *a.takeProfit,
		}).Info("Цена приближается к Take-Profit.")
		a.notifier.Message(fmt.Sprintf("ℹ️ **%s**: Цена (%g) приближается к Take-Profit (%g).",
			a.contractID, currentPrice, *a.takeProfit))
	}
}

func (a *Agent) transitionToCompleted() {
	a.state = StateCompleted
	a.entry().Info("ОБНАРУЖЕНО ЗАКРЫТИЕ ПОЗИЦИИ!")

	a.notifier.Speak("Савдо ёпилди!")
	a.notifier.Message(fmt.Sprintf(
		"🔵 **ПОЗИЦИЯ ЗАКРЫТА**\n\nПозиция по ордеру #%d (%s) была закрыта.\nРезультат доступен в вашем торговом терминале.",
		a.orderID, a.contractID))

	a.entry().Info("Финальные уведомления отправлены. Состояние изменено на COMPLETED.")
}

func (a *Agent) entry() *logrus.Entry {
	return a.log.WithOrderID(a.orderID).WithField("contract_id", a.contractID)
}

func formatLevel(level *float64) string {
	if level == nil {
		return "не найден"
	}
	return fmt.Sprintf("%g", *level)
}
