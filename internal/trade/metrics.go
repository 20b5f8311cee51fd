package trade

import (
	"errors"
	"fmt"
	"math"
)

// Hard position caps per instrument symbol; unknown symbols get 1 contract.
var maxContracts = map[string]int{
	"MGC": 50,
	"GC":  5,
	"CL":  10,
	"ES":  10,
}

const (
	minRiskPercent = 2.0
	maxRiskPercent = 20.0
)

type Metrics struct {
	PositionSize    float64
	TotalRiskUSD    float64
	TotalProfitUSD  float64
	RiskRewardRatio float64
}

// ClampRiskPercent bounds the model-suggested risk to a sane range.
func ClampRiskPercent(p float64) float64 {
	return math.Max(minRiskPercent, math.Min(maxRiskPercent, p))
}

// CalculateMetrics sizes a position from the dollar risk budget: risk per
// contract comes from the entry/stop distance and the contract multiplier,
// and the size is capped by the per-instrument limit.
func CalculateMetrics(entry, stopLoss, takeProfit, contractMultiplier, maxRiskUSD float64, symbol string) (Metrics, error) {
	riskPerUnit := math.Abs(entry - stopLoss)
	if riskPerUnit == 0 {
		return Metrics{}, errors.New("риск на единицу равен нулю")
	}

	riskPerContract := riskPerUnit * contractMultiplier
	if riskPerContract == 0 {
		return Metrics{}, errors.New("риск на контракт равен нулю")
	}

	limit := maxContracts[symbol]
	if limit == 0 {
		limit = 1
	}

	size := math.Min(maxRiskUSD/riskPerContract, float64(limit))
	if size < 0.01 {
		return Metrics{}, fmt.Errorf("расчетный размер позиции (%.2f) слишком мал", size)
	}

	profitPerUnit := math.Abs(takeProfit - entry)
	totalRisk := size * riskPerContract
	totalProfit := size * profitPerUnit * contractMultiplier

	rr := math.Inf(1)
	if totalRisk > 0 {
		rr = totalProfit / totalRisk
	}

	return Metrics{
		PositionSize:    round2(size),
		TotalRiskUSD:    round2(totalRisk),
		TotalProfitUSD:  round2(totalProfit),
		RiskRewardRatio: round2(rr),
	}, nil
}

// ContractCount converts the fractional size into a whole number of
// contracts, never below one.
func (m Metrics) ContractCount() int {
	n := int(math.Round(m.PositionSize))
	if n < 1 {
		n = 1
	}
	return n
}

func round2(v float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}
