package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/dojo-starter/internal/api/request"
	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet connection commands",
	}

	cmd.AddCommand(newWalletShowCmd())
	cmd.AddCommand(newWalletConnectCmd())
	cmd.AddCommand(newWalletDisconnectCmd())
	cmd.AddCommand(newWalletNewCmd())

	return cmd
}

func newWalletShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the wallet connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Wallet

			if err := client.Get("/api/v1/wallet", &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWalletConnectCmd() *cobra.Command {
	var key, keyFile string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect a burner account to the daemon",
		Long: `Connect a burner account. With neither --key nor --key-file the daemon uses its
configured default account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key != "" && keyFile != "" {
				return fmt.Errorf("--key and --key-file are mutually exclusive")
			}
			if keyFile != "" {
				account, err := wallet.LoadBurner(keyFile)
				if err != nil {
					return err
				}
				key = account.PrivateKeyHex()
			}

			var result response.Wallet
			if err := client.Post("/api/v1/wallet/connect", request.ConnectWalletRequest{PrivateKey: key}, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Burner private key (hex)")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "Burner key file written by 'wallet new --save'")

	return cmd
}

func newWalletDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Wallet

			if err := client.Post("/api/v1/wallet/disconnect", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWalletNewCmd() *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a burner account locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := wallet.NewBurnerAccount()
			if err != nil {
				return err
			}

			result := BurnerKey{
				Address:    account.Address(),
				PrivateKey: account.PrivateKeyHex(),
			}
			if save != "" {
				if err := account.Save(save); err != nil {
					return err
				}
				result.SavedTo = save
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Write the key to this file")

	return cmd
}
