package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jafar/internal/broker/projectx/stream"
)

var streamCmd = &cobra.Command{
	Use:   "stream <contract-id>",
	Short: "Print live quotes for a contract",
	Long: `Stream connects to the gateway's real-time market hub and prints every
quote update for the given contract until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, client, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	s := stream.New(cfg.Gateway.StreamURL, client.Token(), log)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	defer s.Close()

	if err := s.Subscribe(args[0]); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case q, ok := <-s.Quotes():
			if !ok {
				return nil
			}
			fmt.Printf("%s  bid=%g ask=%g last=%g\n",
				q.Timestamp.Format("15:04:05"), q.BestBid, q.BestAsk, q.LastPrice)
		}
	}
}
