package advisor

// Advice is the structured answer the model is asked to produce: a long-form
// analysis for the chat, an optional machine-readable plan, and a short
// summary for the voice assistant.
type Advice struct {
	FullAnalysis string     `json:"full_analysis_uzbek_cyrillic"`
	TradeData    *TradePlan `json:"trade_data"`
	VoiceSummary string     `json:"voice_summary_uzbek_latin"`
}

// TradePlan carries the executable part of the advice. TakeProfits is keyed
// tp1, tp2, ... with tp1 used for the protective target order.
type TradePlan struct {
	Action           string             `json:"action"`
	ForecastStrength string             `json:"forecast_strength"`
	RiskPercent      float64            `json:"risk_percent"`
	OrderType        string             `json:"order_type"`
	EntryPrice       float64            `json:"entry_price"`
	StopLoss         float64            `json:"stop_loss"`
	TakeProfits      map[string]float64 `json:"take_profits"`
}

// FirstTakeProfit returns the tp1 level, falling back to the lowest-numbered
// key present.
func (p *TradePlan) FirstTakeProfit() (float64, bool) {
	if v, ok := p.TakeProfits["tp1"]; ok {
		return v, true
	}
	for _, key := range []string{"tp2", "tp3"} {
		if v, ok := p.TakeProfits[key]; ok {
			return v, true
		}
	}
	return 0, false
}
