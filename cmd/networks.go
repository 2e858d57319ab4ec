package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pittpv/happy-vote-app/internal/ui"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := selectedNetwork()
		for _, n := range registry.All() {
			marker := "  "
			if n.Key == selected.Key {
				marker = ui.Happy("* ")
			}
			status := ui.StyleMeta.Render("no contract, voting disabled")
			if n.HasContract() {
				status = "contract " + ui.StyleAddress.Render(ui.ShortAddress(n.ContractAddress))
				if n.SupportsLeaderboard {
					status += ui.StyleMeta.Render(" · leaderboard")
				}
			}
			fmt.Printf("%s%-16s %s  chain %-9d %s\n",
				marker, n.Key, ui.StyleNetwork.Render(n.DisplayName), n.ChainID, status)
		}
		return nil
	},
}
