package cli

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mcoot/dojo-starter/internal/api/response"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the daemon and the chain it talks to",
		Long:  "Check the daemon and the chain it talks to. Exits non-zero when the chain is unreachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health
			if err := client.Get("/api/v1/health", &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			if result.Chain != "ok" {
				return eris.Errorf("chain is %s", result.Chain)
			}
			return nil
		},
	}
}
