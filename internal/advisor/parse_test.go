package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jafar/internal/config"
	"jafar/internal/logger"
)

const planJSON = `{
	"full_analysis_uzbek_cyrillic": "Тренд юқорига.",
	"trade_data": {
		"action": "BUY",
		"forecast_strength": "B",
		"risk_percent": 5.0,
		"order_type": "LIMIT",
		"entry_price": 3325.5,
		"stop_loss": 3310.0,
		"take_profits": {"tp1": 3350.0, "tp2": 3380.0}
	},
	"voice_summary_uzbek_latin": "Oltin uchun xarid rejasi tayyor."
}`

func TestExtractAdviceFromFencedBlock(t *testing.T) {
	raw := "Mana tahlil:\n```json\n" + planJSON + "\n```\nOmad!"

	advice, err := extractAdvice(raw)
	require.NoError(t, err)
	require.NotNil(t, advice.TradeData)
	assert.Equal(t, "BUY", advice.TradeData.Action)
	assert.Equal(t, 3325.5, advice.TradeData.EntryPrice)
}

func TestExtractAdviceFromBareObject(t *testing.T) {
	raw := "Вот ответ: " + planJSON + " — конец."

	advice, err := extractAdvice(raw)
	require.NoError(t, err)
	assert.Equal(t, "Тренд юқорига.", advice.FullAnalysis)
}

func TestExtractAdviceWholeText(t *testing.T) {
	advice, err := extractAdvice(planJSON)
	require.NoError(t, err)
	require.NotNil(t, advice.TradeData)

	tp, ok := advice.TradeData.FirstTakeProfit()
	require.True(t, ok)
	assert.Equal(t, 3350.0, tp)
}

func TestExtractAdviceRejectsGarbage(t *testing.T) {
	_, err := extractAdvice("bu yerda json yo'q { broken")
	require.Error(t, err)
}

func TestFirstTakeProfitFallsBack(t *testing.T) {
	plan := &TradePlan{TakeProfits: map[string]float64{"tp2": 3380.0}}

	tp, ok := plan.FirstTakeProfit()
	require.True(t, ok)
	assert.Equal(t, 3380.0, tp)

	empty := &TradePlan{}
	_, ok = empty.FirstTakeProfit()
	assert.False(t, ok)
}

func geminiStub(t *testing.T, answers []string) *httptest.Server {
	t.Helper()

	call := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Less(t, call, len(answers))
		answer := answers[call]
		call++

		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": answer}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func testClient(srvURL string) *Client {
	c := New(config.AdvisorConfig{APIKey: "secret"}, logger.New(logger.Config{Level: "panic"}))
	c.baseURL = srvURL
	return c
}

func TestAdviseParsesFirstAnswer(t *testing.T) {
	srv := geminiStub(t, []string{"```json\n" + planJSON + "\n```"})
	defer srv.Close()

	advice, err := testClient(srv.URL).Advise(context.Background(), "tahlil qil")
	require.NoError(t, err)
	assert.Equal(t, "BUY", advice.TradeData.Action)
}

func TestAdviseRetriesOnInvalidJSON(t *testing.T) {
	srv := geminiStub(t, []string{"kechirasiz, json yo'q", planJSON})
	defer srv.Close()

	advice, err := testClient(srv.URL).Advise(context.Background(), "tahlil qil")
	require.NoError(t, err)
	assert.Equal(t, 3310.0, advice.TradeData.StopLoss)
}

func TestAdviseFailsAfterTwoAttempts(t *testing.T) {
	srv := geminiStub(t, []string{"birinchi xato", "ikkinchi xato"})
	defer srv.Close()

	_, err := testClient(srv.URL).Advise(context.Background(), "tahlil qil")
	require.Error(t, err)
}
