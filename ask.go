package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run a single message through the router",
	Long:  `Invokes the graph once and prints the formatted reply followed by the route it took.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.TrimSpace(strings.Join(args, " "))
		if message == "" {
			return errx.ErrEmptyMessage
		}
		prior, _ := cmd.Flags().GetString("context")

		a, err := bootstrap(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		reply, err := a.runner.Invoke(cmd.Context(), model.ChatRequest{Message: message, Context: prior})
		if err != nil {
			return fmt.Errorf("failed to invoke graph: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, reply.Response)
		route, err := json.MarshalIndent(reply.Route, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nroute: %s\n", route)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().String("context", "", "Prior conversation text sent as CONTEXTO PREVIO")
}
