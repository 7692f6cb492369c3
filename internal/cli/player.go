package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Make sure the connected account has a player, spawning one if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result initflow.Result

			status, err := client.PostOutcome("/api/v1/player/initialize", &result)
			if err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			if status != http.StatusOK {
				return fmt.Errorf("initialization failed: %s", result.Error)
			}
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the initialization session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result initflow.State

			if err := client.Post("/api/v1/player/reset", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and player store",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session

			if err := client.Get("/api/v1/session", &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "player",
		Short: "Show the cached player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Player

			if err := client.Get("/api/v1/player", &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
