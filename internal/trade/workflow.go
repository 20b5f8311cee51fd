// Package trade runs the analysis-to-order workflow: gather market context,
// ask the advisor for a plan, size the position, place the orders and hand
// the resting order over to an escort agent.
package trade

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"jafar/internal/advisor"
	"jafar/internal/broker"
	"jafar/internal/logger"
	"jafar/internal/market"
	"jafar/internal/memory"
	"jafar/internal/models"
	"jafar/internal/notify"
)

const tradesLookback = 8 * time.Hour

type Adviser interface {
	Advise(ctx context.Context, prompt string) (*advisor.Advice, error)
}

type ContextFetcher interface {
	Headlines(ctx context.Context, instrument string) (string, error)
	Calendar(ctx context.Context) (string, error)
}

type LevelStore interface {
	SaveKeyLevels(instrument string, levels []memory.KeyLevel) (int, error)
	SaveAnalysis(instrument, summary string) error
	Summary(instrument string) (string, error)
}

type Workflow struct {
	client      broker.Client
	adviser     Adviser
	news        ContextFetcher
	store       LevelStore
	notifier    notify.Notifier
	accountName string
	log         *logger.Logger

	now   func() time.Time
	spawn func(orderID, accountID int, contractID string, side models.Side) error
}

func NewWorkflow(client broker.Client, adviser Adviser, news ContextFetcher, store LevelStore,
	notifier notify.Notifier, accountName string, log *logger.Logger) *Workflow {
	w := &Workflow{
		client:      client,
		adviser:     adviser,
		news:        news,
		store:       store,
		notifier:    notifier,
		accountName: accountName,
		log:         log,
		now:         time.Now,
	}
	w.spawn = w.startEscort
	return w
}

type Result struct {
	Advice        *advisor.Advice
	Metrics       *Metrics
	OrderID       int
	ContractID    string
	EscortStarted bool
}

func (w *Workflow) Run(ctx context.Context, query string) (*Result, error) {
	symbol, ok := ResolveInstrument(query)
	if !ok {
		return nil, fmt.Errorf("тикер для '%s' не найден", query)
	}

	contract, err := w.activeContract(ctx, symbol)
	if err != nil {
		return nil, err
	}

	account, err := w.primaryAccount(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := w.gatherContext(ctx, symbol, account, contract.ID)

	advice, err := w.adviser.Advise(ctx, buildPrompt(snapshot.prompt))
	if err != nil {
		return nil, fmt.Errorf("ошибка советника: %w", err)
	}

	res := &Result{Advice: advice, ContractID: contract.ID}

	if plan := advice.TradeData; plan != nil {
		w.saveKeyLevels(symbol, plan)
		w.execute(ctx, res, plan, account, contract, symbol)
	}

	if advice.FullAnalysis != "" {
		if err := w.store.SaveAnalysis(symbol, advice.FullAnalysis); err != nil {
			w.log.WithComponent("trade").WithError(err).Warn("Не удалось сохранить анализ в память.")
		}
		w.notifier.Message(fmt.Sprintf("BTRADE TAHLILI (%s):\n\n%s", symbol, advice.FullAnalysis))
	}
	if advice.VoiceSummary != "" {
		w.notifier.Speak(advice.VoiceSummary)
	}

	return res, nil
}

func (w *Workflow) activeContract(ctx context.Context, symbol string) (models.Contract, error) {
	contracts, err := w.client.SearchContracts(ctx, symbol)
	if err != nil {
		return models.Contract{}, fmt.Errorf("ошибка поиска контракта: %w", err)
	}
	for _, c := range contracts {
		if c.ActiveContract {
			return c, nil
		}
	}
	return models.Contract{}, fmt.Errorf("активный контракт для '%s' не найден", symbol)
}

func (w *Workflow) primaryAccount(ctx context.Context) (models.Account, error) {
	accounts, err := w.client.SearchAccounts(ctx, true)
	if err != nil {
		return models.Account{}, fmt.Errorf("ошибка получения списка счетов: %w", err)
	}
	if len(accounts) == 0 {
		return models.Account{}, fmt.Errorf("активные счета не найдены")
	}
	for _, acc := range accounts {
		if w.accountName != "" && acc.Name == w.accountName {
			return acc, nil
		}
	}
	return accounts[0], nil
}

type contextSnapshot struct {
	prompt promptContext
}

// gatherContext collects everything the prompt needs. The four remote
// lookups run concurrently; each one degrades to a placeholder on failure
// so a dead news feed never blocks the analysis.
func (w *Workflow) gatherContext(ctx context.Context, symbol string, account models.Account, contractID string) contextSnapshot {
	var (
		wg        sync.WaitGroup
		positions []models.Position
		trades    []models.Trade
		headlines string
		calendar  string
	)

	end := w.now().UTC()

	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		if positions, err = w.client.SearchOpenPositions(ctx, account.ID); err != nil {
			w.log.WithComponent("trade").WithError(err).Warn("Не удалось получить открытые позиции.")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if trades, err = w.client.SearchTrades(ctx, account.ID, end.Add(-tradesLookback), end); err != nil {
			w.log.WithComponent("trade").WithError(err).Warn("Не удалось получить историю сделок.")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if headlines, err = w.news.Headlines(ctx, symbol); err != nil {
			w.log.WithComponent("trade").WithError(err).Warn("Не удалось получить новости.")
			headlines = "Новости недоступны."
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if calendar, err = w.news.Calendar(ctx); err != nil {
			w.log.WithComponent("trade").WithError(err).Warn("Не удалось получить экономический календарь.")
			calendar = "Календарь недоступен."
		}
	}()
	wg.Wait()

	netSizes := netPositionSizes(positions, trades)
	posSize := netSizes[contractID]

	memorySummary, err := w.store.Summary(symbol)
	if err != nil {
		w.log.WithComponent("trade").WithError(err).Warn("Не удалось прочитать память.")
		memorySummary = "Память недоступна."
	}

	side := "Long"
	if posSize < 0 {
		side = "Short"
	}

	return contextSnapshot{
		prompt: promptContext{
			Instrument:    symbol,
			Session:       market.Current(end),
			AccountStatus: formatAccountStatus(account, netSizes),
			News:          headlines,
			Calendar:      calendar,
			Memory:        memorySummary,
			PositionSide:  side,
			PositionSize:  posSize,
		},
	}
}

// netPositionSizes reconstructs the signed size of each open position from
// the day's trades, since the position endpoint does not expose direction.
func netPositionSizes(positions []models.Position, trades []models.Trade) map[string]int {
	open := make(map[string]bool, len(positions))
	for _, p := range positions {
		open[p.ContractID] = true
	}

	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	net := make(map[string]int)
	for _, tr := range sorted {
		delta := tr.Size
		if tr.Side == models.SideSell.Code() {
			delta = -tr.Size
		}
		net[tr.ContractID] += delta
	}

	sizes := make(map[string]int)
	for contractID, size := range net {
		if open[contractID] {
			sizes[contractID] = size
		}
	}
	return sizes
}

func formatAccountStatus(account models.Account, netSizes map[string]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**ACCOUNT STATUS (%s):**\n- **Balance:** $%.2f\n", account.Name, account.Balance)

	if len(netSizes) == 0 {
		b.WriteString("- **Open Positions:** None")
		return b.String()
	}

	contracts := make([]string, 0, len(netSizes))
	for contractID := range netSizes {
		contracts = append(contracts, contractID)
	}
	sort.Strings(contracts)

	b.WriteString("- **Open Positions:**")
	for _, contractID := range contracts {
		size := netSizes[contractID]
		side := "Long"
		if size < 0 {
			side, size = "Short", -size
		}
		fmt.Fprintf(&b, "\n  - %s: %s %d", contractID, side, size)
	}
	return b.String()
}

func (w *Workflow) saveKeyLevels(symbol string, plan *advisor.TradePlan) {
	sourceID := "ctrade-" + w.now().Format("20060102-150405")

	var levels []memory.KeyLevel
	if plan.EntryPrice != 0 {
		levels = append(levels, memory.KeyLevel{
			Level: plan.EntryPrice, Type: "ENTRY_" + strings.ToUpper(plan.Action), SourceID: sourceID,
		})
	}
	if plan.StopLoss != 0 {
		levels = append(levels, memory.KeyLevel{Level: plan.StopLoss, Type: "STOP_LOSS", SourceID: sourceID})
	}

	tpKeys := make([]string, 0, len(plan.TakeProfits))
	for key := range plan.TakeProfits {
		tpKeys = append(tpKeys, key)
	}
	sort.Strings(tpKeys)
	for i, key := range tpKeys {
		levels = append(levels, memory.KeyLevel{
			Level: plan.TakeProfits[key], Type: fmt.Sprintf("TAKE_PROFIT_%d", i+1), SourceID: sourceID,
		})
	}

	if len(levels) == 0 {
		return
	}
	saved, err := w.store.SaveKeyLevels(symbol, levels)
	if err != nil {
		w.log.WithComponent("trade").WithError(err).Warn("Не удалось сохранить уровни в память.")
		return
	}
	w.log.WithComponent("trade").WithFields(logrus.Fields{
		"instrument": symbol,
		"saved":      saved,
	}).Info("Ключевые уровни сохранены в память.")
}

// execute turns the plan into orders: a sized entry order, a linked stop and
// a linked target, then an escort agent for resting entries.
func (w *Workflow) execute(ctx context.Context, res *Result, plan *advisor.TradePlan,
	account models.Account, contract models.Contract, symbol string) {

	action := strings.ToUpper(plan.Action)
	if (action != "BUY" && action != "SELL") || plan.EntryPrice == 0 {
		w.log.WithComponent("trade").WithField("action", plan.Action).Info("План не содержит исполняемого действия.")
		return
	}

	takeProfit, ok := plan.FirstTakeProfit()
	if !ok {
		w.log.WithComponent("trade").Error("План не содержит take-profit, ордер не размещен.")
		return
	}

	riskPercent := ClampRiskPercent(plan.RiskPercent)
	multiplier := contract.TickValue / contract.TickSize
	maxRiskUSD := account.Balance * riskPercent / 100

	metrics, err := CalculateMetrics(plan.EntryPrice, plan.StopLoss, takeProfit, multiplier, maxRiskUSD, symbol)
	size := 1
	if err != nil {
		w.log.WithComponent("trade").WithError(err).Warn("Ошибка расчета размера позиции, используется 1 контракт.")
	} else {
		size = metrics.ContractCount()
		res.Metrics = &metrics
	}

	side := models.SideBuy
	if action == "SELL" {
		side = models.SideSell
	}

	entry := broker.OrderRequest{
		AccountID:  account.ID,
		ContractID: contract.ID,
		Side:       side,
		Size:       size,
		CustomTag:  uuid.NewString(),
	}
	switch strings.ToUpper(plan.OrderType) {
	case "LIMIT":
		entry.Type = models.OrderTypeLimit
		entry.LimitPrice = &plan.EntryPrice
	case "STOP":
		entry.Type = models.OrderTypeStop
		entry.StopPrice = &plan.EntryPrice
	default:
		entry.Type = models.OrderTypeMarket
	}

	orderID, err := w.client.PlaceOrder(ctx, entry)
	if err != nil {
		w.log.WithComponent("trade").WithError(err).Error("Ошибка размещения ордера.")
		w.notifier.Message(fmt.Sprintf("❌ **Ошибка размещения ордера (%s)**\n%v", symbol, err))
		return
	}
	res.OrderID = orderID

	w.log.WithComponent("trade").WithFields(logrus.Fields{
		"order_id": orderID,
		"side":     side,
		"size":     size,
	}).Info("Ордер успешно размещен.")

	w.placeProtectiveOrders(ctx, plan, account.ID, contract.ID, side.Opposite(), size, orderID, takeProfit)

	if entry.Type == models.OrderTypeLimit || entry.Type == models.OrderTypeStop {
		if err := w.spawn(orderID, account.ID, contract.ID, side); err != nil {
			w.log.WithComponent("trade").WithError(err).Error("Не удалось запустить фоновый агент.")
			w.notifier.Message(fmt.Sprintf("🚨 **CRITICAL: Agent Start Failed**\nOrder ID: #%d\nError: %v", orderID, err))
		} else {
			res.EscortStarted = true
			w.notifier.Speak("Agent 001 ishga tushirildi.")
		}
	}
}

func (w *Workflow) placeProtectiveOrders(ctx context.Context, plan *advisor.TradePlan,
	accountID int, contractID string, exitSide models.Side, size, entryID int, takeProfit float64) {

	if plan.StopLoss != 0 {
		_, err := w.client.PlaceOrder(ctx, broker.OrderRequest{
			AccountID:     accountID,
			ContractID:    contractID,
			Type:          models.OrderTypeStop,
			Side:          exitSide,
			Size:          size,
			StopPrice:     &plan.StopLoss,
			LinkedOrderID: &entryID,
			CustomTag:     uuid.NewString(),
		})
		if err != nil {
			w.log.WithComponent("trade").WithError(err).Error("Не удалось разместить stop-loss ордер.")
			w.notifier.Message(fmt.Sprintf("⚠️ Stop-loss для ордера #%d не размещен: %v", entryID, err))
		}
	}

	tp := takeProfit
	_, err := w.client.PlaceOrder(ctx, broker.OrderRequest{
		AccountID:     accountID,
		ContractID:    contractID,
		Type:          models.OrderTypeLimit,
		Side:          exitSide,
		Size:          size,
		LimitPrice:    &tp,
		LinkedOrderID: &entryID,
		CustomTag:     uuid.NewString(),
	})
	if err != nil {
		w.log.WithComponent("trade").WithError(err).Error("Не удалось разместить take-profit ордер.")
		w.notifier.Message(fmt.Sprintf("⚠️ Take-profit для ордера #%d не размещен: %v", entryID, err))
	}
}
