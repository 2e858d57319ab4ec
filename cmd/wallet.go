package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pittpv/happy-vote-app/internal/ui"
	"github.com/pittpv/happy-vote-app/internal/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage local wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Store a private key in the OS keychain",
	Long: `Store a hex private key under a wallet name. The key is prompted for
(never passed on the command line) and kept in the OS keychain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		fmt.Print("Private key (hex): ")
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}
		hexKey := strings.TrimSpace(string(keyBytes))

		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return fmt.Errorf("invalid private key: %w", err)
		}

		store := wallet.DefaultKeyStore()
		if err := store.Put(name, hexKey); err != nil {
			return err
		}
		addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
		fmt.Println(ui.Happy("Stored wallet " + name) + " " + ui.StyleAddress.Render(addr))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := wallet.DefaultKeyStore()
		names, err := store.Names()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println(ui.StyleMeta.Render("no wallets stored — add one with `happyvote wallet add <name>`"))
			return nil
		}
		for _, name := range names {
			line := "  " + name
			if hexKey, err := store.Get(name); err == nil {
				if key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x")); err == nil {
					line += "  " + ui.StyleAddress.Render(crypto.PubkeyToAddress(key.PublicKey).Hex())
				}
			}
			fmt.Println(line)
		}
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a stored wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := wallet.DefaultKeyStore()
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Happy("Removed wallet " + args[0]))
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd)
}
