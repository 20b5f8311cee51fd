package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"jafar/internal/broker/projectx"
	"jafar/internal/config"
	"jafar/internal/logger"
	"jafar/internal/models"
	"jafar/internal/monitor"
	"jafar/internal/notify"
)

var escortCmd = &cobra.Command{
	Use:   "escort",
	Short: "Follow one order from placement to position close",
	Long: `Escort runs a single-order monitoring agent: it polls the gateway until
the order fills, then watches the open position and alerts when price
approaches the protective stop or target. The process exits when the
position closes.

One escort process is started per tracked order, normally by the trade
command; it can also be started by hand after a manual order.`,
	RunE: runEscort,
}

var (
	escortOrderID   int
	escortAccountID int
	escortContract  string
	escortSide      string
)

func init() {
	escortCmd.Flags().IntVar(&escortOrderID, "order-id", 0, "gateway id of the tracked order")
	escortCmd.Flags().IntVar(&escortAccountID, "account-id", 0, "gateway account id")
	escortCmd.Flags().StringVar(&escortContract, "contract-id", "", "full contract id (e.g. CON.F.US.MGC.Q25)")
	escortCmd.Flags().StringVar(&escortSide, "expected-side", "", "side of the tracked order: BUY or SELL")

	escortCmd.MarkFlagRequired("order-id")
	escortCmd.MarkFlagRequired("account-id")
	escortCmd.MarkFlagRequired("contract-id")
	escortCmd.MarkFlagRequired("expected-side")

	rootCmd.AddCommand(escortCmd)
}

func runEscort(cmd *cobra.Command, args []string) error {
	side, err := models.ParseSide(escortSide)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Each agent owns its log file exclusively; a restart with the same
	// order id starts the history over.
	log := logger.New(logger.Config{
		Level:    cfg.Runtime.Log.Level,
		Format:   cfg.Runtime.Log.Format,
		Output:   filepath.Join(cfg.Runtime.AgentLogDir, fmt.Sprintf("%d.log", escortOrderID)),
		MaxSize:  cfg.Runtime.Log.MaxSize,
		Truncate: true,
	})

	ctx := cmd.Context()

	client, err := projectx.New(ctx, cfg.Gateway, log)
	if err != nil {
		log.WithError(err).Error("Не удалось подключиться к шлюзу.")
		return err
	}

	agent := monitor.New(monitor.Params{
		OrderID:      escortOrderID,
		AccountID:    escortAccountID,
		ContractID:   escortContract,
		ExpectedSide: side,
	}, client, notify.NewHub(cfg, log), log)

	return agent.Run(ctx)
}
