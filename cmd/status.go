package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pittpv/happy-vote-app/internal/config"
	"github.com/pittpv/happy-vote-app/internal/ui"
	"github.com/pittpv/happy-vote-app/internal/votes"
)

var statusAddress string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current tally and leaderboard",
	Long: `Read the vote tally, leaderboard, and (with --address) the cooldown
for the preferred network. Works without a connected wallet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := selectedNetwork()
		reader := votes.NewReader(registry, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), config.ConnectTimeout)
		defer cancel()
		st := reader.Snapshot(ctx, n.Key, statusAddress)

		fmt.Println(ui.StyleNetwork.Render(n.DisplayName))
		fmt.Printf("%s  %s\n",
			ui.Happy(fmt.Sprintf("Happy %d (%.1f%%)", st.Tally.Happy, st.Tally.HappyPercent())),
			ui.Sad(fmt.Sprintf("Sad %d (%.1f%%)", st.Tally.Sad, st.Tally.SadPercent())))

		if statusAddress != "" {
			if st.Cooldown.CanVote {
				fmt.Println(ui.Happy("This address can vote now."))
			} else if st.Cooldown.SecondsRemaining != nil {
				fmt.Printf("Next vote in %s\n", ui.StyleWarning.Render(ui.FormatCountdown(*st.Cooldown.SecondsRemaining)))
			}
		}

		if len(st.Leaderboard) > 0 {
			fmt.Println(ui.StyleNetwork.Render("\nHappy leaderboard"))
			visible, rest := votes.SplitLeaderboard(st.Leaderboard)
			for i, e := range visible {
				fmt.Printf("%2d. %s  %s\n", i+1,
					ui.StyleAddress.Render(e.Address), ui.Happy(fmt.Sprintf("%d", e.HappyCount)))
			}
			if len(rest) > 0 {
				fmt.Println(ui.StyleMeta.Render(fmt.Sprintf("… and %d more", len(rest))))
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusAddress, "address", "", "also show the vote cooldown for this address")
}
