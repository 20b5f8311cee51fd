package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jafar/internal/advisor"
	"jafar/internal/memory"
	"jafar/internal/news"
	"jafar/internal/trade"
)

var tradeCmd = &cobra.Command{
	Use:   "trade <instrument>",
	Short: "Run the AI analysis workflow and place the planned orders",
	Long: `Trade gathers the full market context for an instrument (account
snapshot, news, economic calendar, remembered key levels), asks the
advisor for a plan, sizes the position from the account risk budget and
places the entry with linked stop-loss and take-profit orders.

For resting entries (limit, stop) a background escort agent is started
that follows the order until the position closes.

Instrument aliases: gold/oltin/zoloto → MGC, oil/neft → CL, s&p → ES.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrade,
}

func init() {
	rootCmd.AddCommand(tradeCmd)
}

func runTrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, client, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	if cfg.Memory.DBPath != "" {
		os.MkdirAll(filepath.Dir(cfg.Memory.DBPath), 0o755)
	}
	store, err := memory.Open(cfg.Memory.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	w := trade.NewWorkflow(
		client,
		advisor.New(cfg.Advisor, log),
		news.NewFetcher(cfg.News, log),
		store,
		newNotifier(cfg, log),
		cfg.Gateway.AccountName,
		log,
	)

	res, err := w.Run(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(res.Advice.FullAnalysis)

	if plan := res.Advice.TradeData; plan != nil {
		fmt.Printf("\nПлан: %s %s @ %g (SL %g)\n", plan.Action, plan.OrderType, plan.EntryPrice, plan.StopLoss)
		if res.Metrics != nil {
			fmt.Printf("Риск: $%.2f, профит: $%.2f, R/R: %.2f\n",
				res.Metrics.TotalRiskUSD, res.Metrics.TotalProfitUSD, res.Metrics.RiskRewardRatio)
		}
	}
	if res.OrderID != 0 {
		fmt.Printf("Ордер #%d размещен.\n", res.OrderID)
	}
	if res.EscortStarted {
		fmt.Printf("Агент сопровождения для ордера #%d запущен.\n", res.OrderID)
	}

	return nil
}
