package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pittpv/happy-vote-app/internal/chain"
	"github.com/pittpv/happy-vote-app/internal/config"
	"github.com/pittpv/happy-vote-app/internal/validate"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/pittpv/happy-vote-app/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir  string
	verbose bool

	cfg      *config.Config
	logger   *zap.Logger
	registry *chain.Registry
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "happyvote",
	Short: "Happy/sad on-chain voting dashboard",
	Long: `happyvote — terminal client for the happy/sad voting contract.

  Watch live tallies and the happy leaderboard, manage local wallets,
  and cast votes across the supported networks. Networks without a
  deployed contract stay listed but voting on them is disabled.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger = newLogger(verbose)
		validate.SetLogger(logger)

		overrides := make(map[string]string)
		for _, n := range chain.NewRegistry(nil).All() {
			if addr := cfg.ContractOverride(n.Key); addr != "" {
				overrides[n.Key] = addr
			}
		}
		registry = chain.NewRegistry(overrides)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

// selectedNetwork resolves the persisted preferred network, falling back to
// the default when the persisted key is stale.
func selectedNetwork() *chain.Network {
	if n, err := registry.Resolve(cfg.PreferredNetwork); err == nil {
		return n
	}
	n, _ := registry.Resolve(config.DefaultNetwork)
	return n
}

func init() {
	if envDir := os.Getenv("HAPPYVOTE_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.happyvote)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		networksCmd,
		useCmd,
		statusCmd,
		walletCmd,
		voteCmd,
		watchCmd,
	)
}
