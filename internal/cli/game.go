package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/dojo-starter/internal/actions"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game session commands",
	}

	cmd.AddCommand(newGameToggleCmd("start", "Start the game"))
	cmd.AddCommand(newGameToggleCmd("end", "End the game"))

	return cmd
}

func newGameToggleCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result store.Snapshot

			if err := client.Post("/api/v1/game/"+name, nil, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Perform a gameplay action",
	}

	for _, action := range model.Actions() {
		cmd.AddCommand(newActionSubCmd(action))
	}

	return cmd
}

func newActionSubCmd(action model.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action),
		Short: fmt.Sprintf("Submit a %s transaction", action),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result actions.Result

			status, err := client.PostOutcome("/api/v1/actions/"+string(action), &result)
			if err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			if status != http.StatusOK {
				return fmt.Errorf("%s was rejected", action)
			}
			return nil
		},
	}
}
