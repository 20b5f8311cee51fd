package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contractCmd = &cobra.Command{
	Use:   "contract <symbol>",
	Short: "Search contracts by symbol",
	Long: `Contract looks up gateway contracts matching a symbol (e.g. MGC, ES)
and prints their ids, tick parameters and which one is the active front
month.`,
	Args: cobra.ExactArgs(1),
	RunE: runContract,
}

func init() {
	rootCmd.AddCommand(contractCmd)
}

func runContract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, _, client, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	contracts, err := client.SearchContracts(ctx, args[0])
	if err != nil {
		return err
	}
	if len(contracts) == 0 {
		fmt.Printf("Контракты для '%s' не найдены.\n", args[0])
		return nil
	}

	for _, c := range contracts {
		marker := " "
		if c.ActiveContract {
			marker = "*"
		}
		fmt.Printf("%s %-22s %-8s tick=%g ($%g)  %s\n",
			marker, c.ID, c.Name, c.TickSize, c.TickValue, c.Description)
	}
	return nil
}
