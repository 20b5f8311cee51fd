package broker

import (
	"context"
	"time"

	"jafar/internal/models"
)

// BarUnit selects the aggregation unit for historical bars.
type BarUnit int

const (
	BarUnitSecond BarUnit = 1
	BarUnitMinute BarUnit = 2
	BarUnitHour   BarUnit = 3
	BarUnitDay    BarUnit = 4
)

type BarRequest struct {
	ContractID string
	Start      time.Time
	End        time.Time
	Unit       BarUnit
	UnitNumber int
	Limit      int
	Partial    bool
}

type OrderRequest struct {
	AccountID     int
	ContractID    string
	Type          models.OrderType
	Side          models.Side
	Size          int
	LimitPrice    *float64
	StopPrice     *float64
	LinkedOrderID *int
	CustomTag     string
}

// Client is the capability surface the assistant needs from the brokerage
// gateway. The escort agent only reads from it; the trade workflow also
// places orders through it.
type Client interface {
	SearchAccounts(ctx context.Context, onlyActive bool) ([]models.Account, error)
	SearchOpenPositions(ctx context.Context, accountID int) ([]models.Position, error)
	SearchOpenOrders(ctx context.Context, accountID int) ([]models.Order, error)
	SearchOrders(ctx context.Context, accountID int, start, end time.Time) ([]models.Order, error)
	SearchTrades(ctx context.Context, accountID int, start, end time.Time) ([]models.Trade, error)
	SearchContracts(ctx context.Context, searchText string) ([]models.Contract, error)
	ContractByID(ctx context.Context, contractID string) (models.Contract, error)
	RetrieveBars(ctx context.Context, req BarRequest) ([]models.Bar, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (int, error)
}
