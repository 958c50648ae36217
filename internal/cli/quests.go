package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/questforge/pkg/models"
)

var (
	questsSubject string
	questsTags    []string
	questsIP      string
)

var questsCmd = &cobra.Command{
	Use:   "quests",
	Short: "Browse published quests",
}

var questsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published quests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Quests == nil {
			return fmt.Errorf("quest registry not initialized")
		}
		if err := Quests.Load(); err != nil {
			return err
		}
		rights, err := models.ParseIPRights(questsIP)
		if err != nil {
			return err
		}

		quests, err := Quests.ListQuests(models.QuestFilter{
			Subject:  questsSubject,
			Tags:     questsTags,
			IPRights: rights,
		})
		if err != nil {
			return fmt.Errorf("listing quests: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(quests) == 0 {
			fmt.Fprintln(out, "No quests found.")
			return nil
		}

		fmt.Fprintf(out, "%-12s %-30s %-18s %12s  %-10s %s\n", "ID", "TITLE", "SUBJECT", "BUDGET", "DEADLINE", "TAGS")
		for _, q := range quests {
			fmt.Fprintf(out, "%-12s %-30s %-18s %12.2f  %-10s %s\n",
				q.ID, truncate(q.Title, 30), truncate(q.Subject, 18), q.Budget, q.Deadline, strings.Join(q.Tags, ","))
		}
		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	questsListCmd.Flags().StringVar(&questsSubject, "subject", "", "only quests in this subject")
	questsListCmd.Flags().StringSliceVar(&questsTags, "tag", nil, "only quests carrying this tag (repeatable)")
	questsListCmd.Flags().StringVar(&questsIP, "ip-rights", "", "only quests with this IP rights option")

	questsCmd.AddCommand(questsListCmd)
	rootCmd.AddCommand(questsCmd)
}
