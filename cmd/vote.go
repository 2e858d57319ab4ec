package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pittpv/happy-vote-app/internal/app"
	"github.com/pittpv/happy-vote-app/internal/config"
	"github.com/pittpv/happy-vote-app/internal/ui"
	"github.com/pittpv/happy-vote-app/internal/votes"
	"github.com/pittpv/happy-vote-app/internal/wallet"
)

var (
	voteWallet string
	voteRemote bool
)

var voteCmd = &cobra.Command{
	Use:   "vote <happy|sad>",
	Short: "Cast a vote on the preferred network",
	Long: `Connect a wallet, submit one vote transaction, and wait for its
confirmation. With --remote the vote is signed by a wallet paired over the
configured relay; otherwise a locally stored key signs it.

Examples:
  happyvote vote happy
  happyvote vote sad --wallet work
  happyvote vote happy --remote`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var isHappy bool
		switch args[0] {
		case "happy":
			isHappy = true
		case "sad":
			isHappy = false
		default:
			return fmt.Errorf("vote must be %q or %q", "happy", "sad")
		}

		session := wallet.NewSession(logger)
		if err := connectWallet(cmd.Context(), session); err != nil {
			return err
		}
		defer session.Disconnect()

		reader := votes.NewReader(registry, logger)
		pipeline := votes.NewPipeline(registry, reader, session, logger)
		coordinator := app.NewCoordinator(registry, session, reader, pipeline,
			cfg, cfg.PreferredNetwork, logger)

		n, err := registry.Resolve(coordinator.Selected())
		if err != nil {
			return err
		}

		side := ui.Sad("sad")
		if isHappy {
			side = ui.Happy("happy")
		}
		fmt.Printf("Voting %s on %s as %s…\n",
			side, ui.StyleNetwork.Render(n.DisplayName), ui.StyleAddress.Render(ui.ShortAddress(session.Address())))

		outcome, err := coordinator.Vote(cmd.Context(), isHappy)
		if err != nil {
			return err
		}
		printOutcome(outcome, n.TxURL(outcome.TxHash))
		return nil
	},
}

// connectWallet attaches either a local keystore wallet or a relay-paired
// remote wallet to the session, per the command flags.
func connectWallet(ctx context.Context, session *wallet.Session) error {
	ctx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	if voteRemote {
		if cfg.RelayURL == "" {
			return fmt.Errorf("no relay configured; set relay_url in config or HAPPYVOTE_RELAY_URL")
		}
		fmt.Println(ui.StyleMeta.Render("waiting for wallet approval via relay…"))
		return session.Connect(ctx, wallet.NewRemoteTransport(cfg.RelayURL, cfg.RelayProjectID, logger))
	}

	store := wallet.DefaultKeyStore()
	return session.Connect(ctx, wallet.NewLocalTransport(store, voteWallet, selectedNetwork().ChainID, logger))
}

func printOutcome(outcome votes.Outcome, txURL string) {
	switch outcome.Phase {
	case votes.PhaseConfirmed:
		fmt.Println(ui.Happy("Vote confirmed!"))
		fmt.Println("  tx: " + ui.StyleAddress.Render(outcome.TxHash))
		fmt.Println("  " + ui.StyleMeta.Render(txURL))
		if outcome.State != nil {
			t := outcome.State.Tally
			fmt.Printf("  now %s / %s\n",
				ui.Happy(fmt.Sprintf("happy %d", t.Happy)), ui.Sad(fmt.Sprintf("sad %d", t.Sad)))
		}
	case votes.PhaseRejected:
		fmt.Println(ui.Warn(outcome.Reason))
	case votes.PhaseTimedOutUnconfirmed:
		fmt.Println(ui.Warn(outcome.Reason))
		fmt.Println("  " + ui.StyleMeta.Render(txURL))
	default:
		fmt.Println(ui.Sad("Vote failed: " + outcome.Reason))
		if outcome.TxHash != "" {
			fmt.Println("  " + ui.StyleMeta.Render(txURL))
		}
	}
}

func init() {
	voteCmd.Flags().StringVar(&voteWallet, "wallet", "", "local wallet name to sign with")
	voteCmd.Flags().BoolVar(&voteRemote, "remote", false, "sign with a wallet paired over the relay")
}
