package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/questforge/internal/core"
	"github.com/valter-silva-au/questforge/internal/observability"
	"github.com/valter-silva-au/questforge/internal/richtext"
	"github.com/valter-silva-au/questforge/pkg/models"
	"go.uber.org/zap"
)

var draftShowJSON bool

var errIncomplete = errors.New("draft incomplete")

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect and edit the saved quest draft",
	Long: `Inspect and edit the saved quest draft without the interactive wizard.

Every editing subcommand loads the saved draft, applies one change and saves
it again, exactly as the wizard's "save draft" action would.`,
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if DraftStore == nil {
			return fmt.Errorf("draft store not initialized")
		}
		out := cmd.OutOrStdout()

		draft, found, err := DraftStore.Load()
		if err != nil {
			Logger.Warn("ignoring saved draft", zap.Error(err))
		}
		if !found {
			if draftShowJSON {
				fmt.Fprintln(out, "null")
				return nil
			}
			fmt.Fprintln(out, "No saved draft.")
			return nil
		}

		if draftShowJSON {
			data, err := json.MarshalIndent(draft, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding draft: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		printDraft(out, *draft)
		return nil
	},
}

var draftSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one draft field and save",
	Long: `Set one draft field and save the draft.

Fields: title, subject, tags, description, deliverables, acceptanceCriteria,
budget, deadline, ipRights. Tags are comma-separated. Description,
deliverables and acceptance criteria accept HTML (sanitized) or plain text
(one paragraph per line). An empty value clears the field.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, ok := models.ParseDraftField(args[0])
		if !ok {
			return fmt.Errorf("unknown field %q (valid fields: %s)", args[0], fieldNames())
		}
		value := ""
		if len(args) == 2 {
			value = args[1]
		}
		if field == models.FieldSubject && value != "" && !knownSubject(value) {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: %q is not one of the listed subjects\n", value)
		}

		w, err := openWizard(cmd)
		if err != nil {
			return err
		}
		if isRichField(field) {
			value = richValue(value)
		}
		if err := w.UpdateField(field, value); err != nil {
			return err
		}
		return w.SaveDraft()
	},
}

var draftTagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Add or remove draft tags",
}

var draftTagAddCmd = &cobra.Command{
	Use:   "add <tag>...",
	Short: "Add tags and save",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWizard(cmd)
		if err != nil {
			return err
		}
		for _, tag := range args {
			if !w.AddTag(tag) {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %q (blank or already present)\n", tag)
			}
		}
		return w.SaveDraft()
	},
}

var draftTagRmCmd = &cobra.Command{
	Use:     "rm <tag>...",
	Aliases: []string{"remove"},
	Short:   "Remove tags and save",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWizard(cmd)
		if err != nil {
			return err
		}
		for _, tag := range args {
			if !w.RemoveTag(tag) {
				fmt.Fprintf(cmd.ErrOrStderr(), "tag %q not found\n", tag)
			}
		}
		return w.SaveDraft()
	},
}

var draftAttachCmd = &cobra.Command{
	Use:   "attach <path>...",
	Short: "Attach files for this session and save the draft",
	Long: `Attach files to the draft for the duration of this command, then save.

Attachments are never written with the draft; the saved record shown at the
end demonstrates what a later session will see.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWizard(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range args {
			info, err := os.Stat(p)
			if err != nil {
				return fmt.Errorf("attaching %s: %w", p, err)
			}
			if info.IsDir() {
				return fmt.Errorf("attaching %s: is a directory", p)
			}
			w.AddAttachment(models.Attachment{Name: filepath.Base(p), Path: p, Size: info.Size()})
		}

		for _, a := range w.Draft().Attachments {
			fmt.Fprintf(out, "attached %s (%d bytes) for this session\n", a.Name, a.Size)
		}
		if err := w.SaveDraft(); err != nil {
			return err
		}

		saved, found, err := DraftStore.Load()
		if err == nil && found {
			fmt.Fprintf(out, "saved draft carries %d attachments\n", len(saved.Attachments))
		}
		return nil
	},
}

var draftCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every step gate against the saved draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWizard(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		d := w.Draft()

		failed := 0
		for _, step := range []models.WizardStep{models.StepBasics, models.StepStandards, models.StepTerms} {
			verr := w.Validators().Validate(step, d)
			if verr == nil {
				fmt.Fprintln(out, observability.RenderToast(core.Notification{Level: core.LevelSuccess, Message: step.Label()}))
				continue
			}
			failed++
			msg := fmt.Sprintf("%s: %s (%s)", step.Label(), verr.Message, joinFields(verr.Fields))
			fmt.Fprintln(out, observability.RenderToast(core.Notification{Level: core.LevelError, Message: msg}))
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d of 3 steps incomplete", errIncomplete, failed)
		}
		return nil
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWizard(cmd)
		if err != nil {
			return err
		}
		if err := w.ClearDraft(); err != nil {
			return fmt.Errorf("clearing draft: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared.")
		return nil
	},
}

// openWizard builds a wizard reporting to the command's output and restores
// the saved draft into it.
func openWizard(cmd *cobra.Command) (*core.QuestWizard, error) {
	if NewWizard == nil {
		return nil, fmt.Errorf("wizard not initialized")
	}
	w := NewWizard(observability.NewTerminalToaster(cmd.OutOrStdout()), nil)
	w.Mount()
	return w, nil
}

func printDraft(out io.Writer, d models.QuestDraft) {
	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		fmt.Fprintf(out, "%-20s %s\n", label+":", value)
	}
	row("Title", d.Title)
	row("Subject", d.Subject)
	row("Tags", strings.Join(d.Tags, ", "))
	row("Description", richtext.PlainText(d.Description))
	row("Deliverables", richtext.PlainText(d.Deliverables))
	row("Acceptance criteria", richtext.PlainText(d.AcceptanceCriteria))
	row("Budget", d.Budget)
	row("Deadline", d.Deadline)
	row("IP rights", string(d.IPRights))
}

func isRichField(f models.DraftField) bool {
	return f == models.FieldDescription || f == models.FieldDeliverables || f == models.FieldAcceptanceCriteria
}

// richValue accepts HTML or plain text for a rich-text field.
func richValue(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if strings.Contains(s, "<") {
		return richtext.Sanitize(s)
	}
	return richtext.FromPlainText(s)
}

func knownSubject(s string) bool {
	for _, subj := range models.Subjects {
		if strings.EqualFold(subj, s) {
			return true
		}
	}
	return false
}

func fieldNames() string {
	return joinFields(models.DraftFields)
}

func joinFields(fields []models.DraftField) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func init() {
	draftShowCmd.Flags().BoolVar(&draftShowJSON, "json", false, "print the saved record as JSON")

	draftTagCmd.AddCommand(draftTagAddCmd, draftTagRmCmd)
	draftCmd.AddCommand(draftShowCmd, draftSetCmd, draftTagCmd, draftAttachCmd, draftCheckCmd, draftClearCmd)
	rootCmd.AddCommand(draftCmd)
}
