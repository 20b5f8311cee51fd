package trade

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jafar/internal/advisor"
	"jafar/internal/broker"
	"jafar/internal/logger"
	"jafar/internal/memory"
	"jafar/internal/models"
)

type fakeBroker struct {
	contracts []models.Contract
	accounts  []models.Account
	positions []models.Position
	trades    []models.Trade

	placed     []broker.OrderRequest
	nextID     int
	placeError error
}

func (f *fakeBroker) SearchAccounts(ctx context.Context, onlyActive bool) ([]models.Account, error) {
	return f.accounts, nil
}

func (f *fakeBroker) SearchOpenPositions(ctx context.Context, accountID int) ([]models.Position, error) {
	return f.positions, nil
}

func (f *fakeBroker) SearchOpenOrders(ctx context.Context, accountID int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeBroker) SearchOrders(ctx context.Context, accountID int, start, end time.Time) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeBroker) SearchTrades(ctx context.Context, accountID int, start, end time.Time) ([]models.Trade, error) {
	return f.trades, nil
}

func (f *fakeBroker) SearchContracts(ctx context.Context, searchText string) ([]models.Contract, error) {
	return f.contracts, nil
}

func (f *fakeBroker) ContractByID(ctx context.Context, contractID string) (models.Contract, error) {
	return models.Contract{}, errors.New("не найден")
}

func (f *fakeBroker) RetrieveBars(ctx context.Context, req broker.BarRequest) ([]models.Bar, error) {
	return nil, nil
}

func (f *fakeBroker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (int, error) {
	if f.placeError != nil {
		return 0, f.placeError
	}
	f.placed = append(f.placed, req)
	f.nextID++
	return f.nextID, nil
}

type fakeAdviser struct {
	advice *advisor.Advice
	err    error
	prompt string
}

func (f *fakeAdviser) Advise(ctx context.Context, prompt string) (*advisor.Advice, error) {
	f.prompt = prompt
	return f.advice, f.err
}

type fakeNews struct{}

func (fakeNews) Headlines(ctx context.Context, instrument string) (string, error) {
	return "- (Marketaux) Gold steady", nil
}

func (fakeNews) Calendar(ctx context.Context) (string, error) {
	return "Важных событий нет.", nil
}

type fakeStore struct {
	levels   map[string][]memory.KeyLevel
	analyses []string
}

func (f *fakeStore) SaveKeyLevels(instrument string, levels []memory.KeyLevel) (int, error) {
	if f.levels == nil {
		f.levels = map[string][]memory.KeyLevel{}
	}
	f.levels[instrument] = append(f.levels[instrument], levels...)
	return len(levels), nil
}

func (f *fakeStore) SaveAnalysis(instrument, summary string) error {
	f.analyses = append(f.analyses, summary)
	return nil
}

func (f *fakeStore) Summary(instrument string) (string, error) {
	return "Сохраненных уровней нет.", nil
}

type spyNotifier struct {
	messages []string
	speeches []string
}

func (s *spyNotifier) Message(text string) { s.messages = append(s.messages, text) }
func (s *spyNotifier) Speak(text string)   { s.speeches = append(s.speeches, text) }

type spawnCall struct {
	orderID    int
	accountID  int
	contractID string
	side       models.Side
}

func buyPlan(orderType string) *advisor.Advice {
	return &advisor.Advice{
		FullAnalysis: "Тренд юқорига.",
		TradeData: &advisor.TradePlan{
			Action:      "BUY",
			RiskPercent: 5,
			OrderType:   orderType,
			EntryPrice:  2350.5,
			StopLoss:    2335.0,
			TakeProfits: map[string]float64{"tp1": 2365.0},
		},
		VoiceSummary: "Xarid rejasi tayyor.",
	}
}

func newTestWorkflow(b *fakeBroker, adviser *fakeAdviser) (*Workflow, *fakeStore, *spyNotifier, *[]spawnCall) {
	store := &fakeStore{}
	spy := &spyNotifier{}

	w := NewWorkflow(b, adviser, fakeNews{}, store, spy, "Main", logger.New(logger.Config{Level: "panic"}))

	var spawns []spawnCall
	w.spawn = func(orderID, accountID int, contractID string, side models.Side) error {
		spawns = append(spawns, spawnCall{orderID, accountID, contractID, side})
		return nil
	}

	return w, store, spy, &spawns
}

func mgcBroker() *fakeBroker {
	return &fakeBroker{
		contracts: []models.Contract{
			{ID: "CON.F.US.MGC.M25", TickSize: 0.1, TickValue: 1},
			{ID: "CON.F.US.MGC.Q25", TickSize: 0.1, TickValue: 1, ActiveContract: true},
		},
		accounts: []models.Account{
			{ID: 3, Name: "Other", Balance: 500},
			{ID: 7, Name: "Main", Balance: 1000},
		},
	}
}

func TestRunUnknownInstrument(t *testing.T) {
	w, _, _, _ := newTestWorkflow(mgcBroker(), &fakeAdviser{})

	_, err := w.Run(context.Background(), "bitcoin")
	require.Error(t, err)
}

func TestRunPlacesBracketAndSpawnsEscort(t *testing.T) {
	b := mgcBroker()
	adviser := &fakeAdviser{advice: buyPlan("LIMIT")}
	w, store, spy, spawns := newTestWorkflow(b, adviser)

	res, err := w.Run(context.Background(), "gold")
	require.NoError(t, err)

	// Entry plus linked stop and target.
	require.Len(t, b.placed, 3)

	entry := b.placed[0]
	assert.Equal(t, 7, entry.AccountID) // preferred account by name, not first
	assert.Equal(t, "CON.F.US.MGC.Q25", entry.ContractID)
	assert.Equal(t, models.OrderTypeLimit, entry.Type)
	assert.Equal(t, models.SideBuy, entry.Side)
	assert.Equal(t, 1, entry.Size)
	require.NotNil(t, entry.LimitPrice)
	assert.Equal(t, 2350.5, *entry.LimitPrice)
	assert.NotEmpty(t, entry.CustomTag)

	stop := b.placed[1]
	assert.Equal(t, models.OrderTypeStop, stop.Type)
	assert.Equal(t, models.SideSell, stop.Side)
	require.NotNil(t, stop.StopPrice)
	assert.Equal(t, 2335.0, *stop.StopPrice)
	require.NotNil(t, stop.LinkedOrderID)
	assert.Equal(t, res.OrderID, *stop.LinkedOrderID)

	target := b.placed[2]
	assert.Equal(t, models.OrderTypeLimit, target.Type)
	assert.Equal(t, models.SideSell, target.Side)
	require.NotNil(t, target.LimitPrice)
	assert.Equal(t, 2365.0, *target.LimitPrice)

	assert.True(t, res.EscortStarted)
	require.Len(t, *spawns, 1)
	assert.Equal(t, res.OrderID, (*spawns)[0].orderID)
	assert.Equal(t, models.SideBuy, (*spawns)[0].side)

	assert.NotEmpty(t, store.levels["MGC"])
	assert.Contains(t, store.analyses[0], "Тренд")
	assert.Contains(t, spy.speeches, "Agent 001 ishga tushirildi.")

	found := false
	for _, m := range spy.messages {
		if strings.Contains(m, "BTRADE TAHLILI (MGC)") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunMarketOrderSkipsEscort(t *testing.T) {
	b := mgcBroker()
	w, _, _, spawns := newTestWorkflow(b, &fakeAdviser{advice: buyPlan("MARKET")})

	res, err := w.Run(context.Background(), "gold")
	require.NoError(t, err)

	require.Len(t, b.placed, 3)
	assert.Equal(t, models.OrderTypeMarket, b.placed[0].Type)
	assert.False(t, res.EscortStarted)
	assert.Empty(t, *spawns)
}

func TestRunHoldPlanPlacesNothing(t *testing.T) {
	b := mgcBroker()
	advice := buyPlan("LIMIT")
	advice.TradeData.Action = "HOLD"
	w, _, _, spawns := newTestWorkflow(b, &fakeAdviser{advice: advice})

	res, err := w.Run(context.Background(), "gold")
	require.NoError(t, err)

	assert.Empty(t, b.placed)
	assert.Zero(t, res.OrderID)
	assert.Empty(t, *spawns)
}

func TestRunSavesKeyLevelsFromPlan(t *testing.T) {
	b := mgcBroker()
	w, store, _, _ := newTestWorkflow(b, &fakeAdviser{advice: buyPlan("LIMIT")})

	_, err := w.Run(context.Background(), "gold")
	require.NoError(t, err)

	levels := store.levels["MGC"]
	require.Len(t, levels, 3)

	types := map[string]float64{}
	for _, lvl := range levels {
		types[lvl.Type] = lvl.Level
	}
	assert.Equal(t, 2350.5, types["ENTRY_BUY"])
	assert.Equal(t, 2335.0, types["STOP_LOSS"])
	assert.Equal(t, 2365.0, types["TAKE_PROFIT_1"])
}

func TestRunAdviserFailure(t *testing.T) {
	w, _, _, _ := newTestWorkflow(mgcBroker(), &fakeAdviser{err: errors.New("api down")})

	_, err := w.Run(context.Background(), "gold")
	require.Error(t, err)
}

func TestNetPositionSizes(t *testing.T) {
	positions := []models.Position{{ContractID: "A"}, {ContractID: "B"}}
	trades := []models.Trade{
		{ContractID: "A", Size: 3, Side: models.SideBuy.Code(), CreatedAt: time.Unix(1, 0)},
		{ContractID: "A", Size: 1, Side: models.SideSell.Code(), CreatedAt: time.Unix(2, 0)},
		{ContractID: "B", Size: 2, Side: models.SideSell.Code(), CreatedAt: time.Unix(3, 0)},
		{ContractID: "C", Size: 5, Side: models.SideBuy.Code(), CreatedAt: time.Unix(4, 0)}, // closed, ignored
	}

	sizes := netPositionSizes(positions, trades)
	assert.Equal(t, map[string]int{"A": 2, "B": -2}, sizes)
}

func TestFormatAccountStatus(t *testing.T) {
	status := formatAccountStatus(models.Account{Name: "Main", Balance: 1234.5}, map[string]int{"A": 2, "B": -1})
	assert.Contains(t, status, "Main")
	assert.Contains(t, status, "$1234.50")
	assert.Contains(t, status, "A: Long 2")
	assert.Contains(t, status, "B: Short 1")

	empty := formatAccountStatus(models.Account{Name: "Main"}, nil)
	assert.Contains(t, empty, "Open Positions:** None")
}
