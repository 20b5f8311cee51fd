// Package projectx wires the ProjectX gateway REST client into the broker
// capability interface. Authentication happens at construction: a client
// that cannot log in is never handed out.
package projectx

import (
	"context"
	"fmt"

	"jafar/internal/broker"
	"jafar/internal/broker/projectx/rest"
	"jafar/internal/config"
	"jafar/internal/logger"
	"jafar/internal/models"
)

var _ broker.Client = (*rest.Client)(nil)

func New(ctx context.Context, cfg config.GatewayConfig, log *logger.Logger) (*rest.Client, error) {
	c := rest.New(cfg.BaseURL, cfg.UserName, cfg.APIKey, log)
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// PrimaryAccount picks the account named preferred, falling back to the
// first active account the gateway returns.
func PrimaryAccount(ctx context.Context, c broker.Client, preferred string) (models.Account, error) {
	accounts, err := c.SearchAccounts(ctx, true)
	if err != nil {
		return models.Account{}, err
	}
	if len(accounts) == 0 {
		return models.Account{}, fmt.Errorf("Шлюз не вернул ни одного активного счёта")
	}

	if preferred != "" {
		for _, acc := range accounts {
			if acc.Name == preferred {
				return acc, nil
			}
		}
	}

	return accounts[0], nil
}
