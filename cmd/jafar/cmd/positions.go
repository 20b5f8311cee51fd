package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jafar/internal/broker/projectx"
	"jafar/internal/models"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show open positions and working orders",
	RunE:  runPositions,
}

func init() {
	rootCmd.AddCommand(positionsCmd)
}

func runPositions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, _, client, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	account, err := projectx.PrimaryAccount(ctx, client, cfg.Gateway.AccountName)
	if err != nil {
		return err
	}

	fmt.Printf("Счет: %s (баланс $%.2f)\n\n", account.Name, account.Balance)

	positions, err := client.SearchOpenPositions(ctx, account.ID)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("Открытых позиций нет.")
	} else {
		fmt.Println("Открытые позиции:")
		for _, p := range positions {
			fmt.Printf("  %-22s size=%d avg=%g\n", p.ContractID, p.Size, p.AveragePrice)
		}
	}

	orders, err := client.SearchOpenOrders(ctx, account.ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("\nРабочих ордеров нет.")
		return nil
	}

	fmt.Println("\nРабочие ордера:")
	for _, o := range orders {
		price := ""
		if o.LimitPrice != nil {
			price = fmt.Sprintf("limit=%g", *o.LimitPrice)
		}
		if o.StopPrice != nil {
			price = fmt.Sprintf("stop=%g", *o.StopPrice)
		}
		fmt.Printf("  #%-8d %-22s %-13s %s size=%d %s\n",
			o.ID, o.ContractID, o.Type, models.SideFromCode(o.Side), o.Size, price)
	}
	return nil
}
