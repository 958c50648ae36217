package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	qfmcp "github.com/valter-silva-au/questforge/internal/mcp"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the questforge MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the questforge MCP server on stdio",
	Long: `Start the questforge MCP server on stdio transport.

The server exposes one wizard session as MCP tools that AI assistants can
call: get_wizard_state, update_field, add_tag, remove_tag, next_step,
prev_step, set_step, save_draft, clear_draft, publish_quest, list_quests.

The saved draft is restored when the server starts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewWizard == nil {
			return fmt.Errorf("wizard not initialized")
		}

		toasts := qfmcp.NewToastCollector()
		wizard := NewWizard(toasts, nil)
		wizard.Mount()

		deps := qfmcp.Deps{Wizard: wizard, Toasts: toasts}
		if NewPublisher != nil {
			deps.Publisher = NewPublisher(toasts, nil)
		}
		if Quests != nil {
			deps.Quests = Quests
		}
		srv := qfmcp.NewServer(deps, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		Logger.Info("mcp server starting", zap.String("session", wizard.SessionID()))
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
