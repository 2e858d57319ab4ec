package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pittpv/happy-vote-app/internal/ui"
)

var useCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the preferred network",
	Long: `Set the preferred network and persist it to config.

Examples:
  happyvote use monad-testnet
  happyvote use sepolia`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := registry.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q — run `happyvote networks` to see all networks", args[0])
		}
		if err := cfg.SetPreferredNetwork(n.Key); err != nil {
			return err
		}
		fmt.Println(ui.Happy("Preferred network set to " + n.DisplayName))
		if !n.HasContract() {
			fmt.Println(ui.Warn("no voting contract is deployed on " + n.DisplayName + "; voting is disabled there"))
		}
		return nil
	},
}
