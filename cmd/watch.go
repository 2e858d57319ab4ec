package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pittpv/happy-vote-app/internal/app"
	"github.com/pittpv/happy-vote-app/internal/config"
	"github.com/pittpv/happy-vote-app/internal/ui"
	"github.com/pittpv/happy-vote-app/internal/votes"
	"github.com/pittpv/happy-vote-app/internal/wallet"
)

var (
	watchWallet  string
	watchRemote  bool
	watchConnect bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of tallies, cooldown, and leaderboard",
	Long: `Render a live-updating dashboard for the preferred network. Without
--connect the dashboard is read-only; with it, a wallet is attached so the
cooldown countdown reflects your address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session := wallet.NewSession(logger)
		if watchConnect || watchRemote || watchWallet != "" {
			voteWallet, voteRemote = watchWallet, watchRemote
			if err := connectWallet(cmd.Context(), session); err != nil {
				return err
			}
			defer session.Disconnect()
		}

		reader := votes.NewReader(registry, logger)
		pipeline := votes.NewPipeline(registry, reader, session, logger)
		coordinator := app.NewCoordinator(registry, session, reader, pipeline,
			cfg, cfg.PreferredNetwork, logger)

		model := ui.NewDashboard(coordinator, registry, config.RefreshInterval)
		if _, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchConnect, "connect", false, "attach a wallet for the cooldown view")
	watchCmd.Flags().StringVar(&watchWallet, "wallet", "", "local wallet name to attach")
	watchCmd.Flags().BoolVar(&watchRemote, "remote", false, "attach a wallet paired over the relay")
}
