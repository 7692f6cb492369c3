package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/dojo-starter/internal/api/middleware"
	"github.com/mcoot/dojo-starter/internal/dependencies/random"
)

// APIToken is a freshly generated daemon API token
type APIToken struct {
	Token   string `json:"token"`
	Hash    string `json:"hash"`
	SavedTo string `json:"saved_to,omitempty"`
}

func newTokenCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate an API token for the daemon",
		Long: `Generate a random API token and its bcrypt hash.

Put the hash in the daemon config (api.token_hash or STARTER_API_TOKEN_HASH). With --save
the token is written to the token file the other commands read.`,
		Args: cobra.NoArgs,
		// works without a daemon
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimPrefix(random.New().Hex(32), "0x")
			hash, err := middleware.HashToken(token)
			if err != nil {
				return err
			}

			result := APIToken{Token: token, Hash: hash}
			if save {
				if err := cfg.SaveToken(token); err != nil {
					return err
				}
				result.SavedTo = cfg.TokenFile
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Write the token to the token file")

	return cmd
}
