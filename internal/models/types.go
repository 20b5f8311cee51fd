package models

import (
	"fmt"
	"strings"
	"time"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalizes user input ("buy", "Sell") to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	}
	return "", fmt.Errorf("Неизвестная сторона сделки: %q", s)
}

// Code returns the wire representation used by the gateway: 0 = Bid (buy),
// 1 = Ask (sell).
func (s Side) Code() int {
	if s == SideSell {
		return 1
	}
	return 0
}

// Opposite returns the exit side for a position opened on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func SideFromCode(code int) Side {
	if code == 1 {
		return SideSell
	}
	return SideBuy
}

// OrderType is the closed set of order-type codes the gateway emits.
type OrderType int

const (
	OrderTypeUnknown      OrderType = 0
	OrderTypeLimit        OrderType = 1
	OrderTypeMarket       OrderType = 2
	OrderTypeStopLimit    OrderType = 3
	OrderTypeStop         OrderType = 4
	OrderTypeTrailingStop OrderType = 5
	OrderTypeJoinBid      OrderType = 6
	OrderTypeJoinAsk      OrderType = 7
)

// IsStopKind reports whether the order protects a position on the loss side.
func (t OrderType) IsStopKind() bool {
	switch t {
	case OrderTypeStop, OrderTypeStopLimit, OrderTypeTrailingStop:
		return true
	}
	return false
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeStopLimit:
		return "STOP_LIMIT"
	case OrderTypeStop:
		return "STOP"
	case OrderTypeTrailingStop:
		return "TRAILING_STOP"
	case OrderTypeJoinBid:
		return "JOIN_BID"
	case OrderTypeJoinAsk:
		return "JOIN_ASK"
	}
	return "UNKNOWN"
}

type OrderStatus int

const (
	OrderStatusNone      OrderStatus = 0
	OrderStatusOpen      OrderStatus = 1
	OrderStatusFilled    OrderStatus = 2
	OrderStatusCancelled OrderStatus = 3
	OrderStatusExpired   OrderStatus = 4
	OrderStatusRejected  OrderStatus = 5
	OrderStatusPending   OrderStatus = 6
)

type Account struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"`
	CanTrade  bool    `json:"canTrade"`
	Simulated bool    `json:"simulated"`
}

type Position struct {
	ID           int       `json:"id"`
	AccountID    int       `json:"accountId"`
	ContractID   string    `json:"contractId"`
	Type         int       `json:"type"` // 1 = long, 2 = short
	Size         int       `json:"size"`
	AveragePrice float64   `json:"averagePrice"`
	CreatedAt    time.Time `json:"creationTimestamp"`
}

type Order struct {
	ID         int         `json:"id"`
	AccountID  int         `json:"accountId"`
	ContractID string      `json:"contractId"`
	Type       OrderType   `json:"type"`
	Side       int         `json:"side"`
	Size       int         `json:"size"`
	Status     OrderStatus `json:"status"`
	LimitPrice *float64    `json:"limitPrice"`
	StopPrice  *float64    `json:"stopPrice"`
	CustomTag  string      `json:"customTag"`
	CreatedAt  time.Time   `json:"creationTimestamp"`
}

type Trade struct {
	ID         int       `json:"id"`
	AccountID  int       `json:"accountId"`
	ContractID string    `json:"contractId"`
	Price      float64   `json:"price"`
	Fees       float64   `json:"fees"`
	Side       int       `json:"side"`
	Size       int       `json:"size"`
	ProfitLoss *float64  `json:"profitAndLoss"` // nil for a half-turn trade
	OrderID    int       `json:"orderId"`
	CreatedAt  time.Time `json:"creationTimestamp"`
}

type Contract struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	TickSize       float64 `json:"tickSize"`
	TickValue      float64 `json:"tickValue"`
	ActiveContract bool    `json:"activeContract"`
}

type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

type Quote struct {
	ContractID string    `json:"contractId"`
	BestBid    float64   `json:"bestBid"`
	BestAsk    float64   `json:"bestAsk"`
	LastPrice  float64   `json:"lastPrice"`
	Timestamp  time.Time `json:"timestamp"`
}
