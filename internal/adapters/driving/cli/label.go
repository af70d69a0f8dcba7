package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage labels",
	Long:  `List, create, attach, rename, or destroy document labels.`,
}

var labelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known labels",
	Args:  cobra.NoArgs,
	RunE:  runLabelList,
}

var labelCreateCmd = &cobra.Command{
	Use:   "create [name] [color] [doc-id]",
	Short: "Create a label and attach it to a document",
	Long: `Creates a new label with a "#rrggbb" colour. When a document id is
given the label is attached to that document.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runLabelCreate,
}

var labelAddCmd = &cobra.Command{
	Use:   "add [doc-id] [name]",
	Short: "Attach a known label to a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelAdd,
}

var labelRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id] [name]",
	Short: "Detach a label from a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelRemove,
}

var labelRenameCmd = &cobra.Command{
	Use:   "rename [name] [new-name]",
	Short: "Rename or recolour a label on every document",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelRename,
}

var labelDestroyCmd = &cobra.Command{
	Use:   "destroy [name]",
	Short: "Remove a label from every document",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelDestroy,
}

var guessCmd = &cobra.Command{
	Use:   "guess [doc-id]",
	Short: "Guess the labels of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuess,
}

// labelColor is a flag for the rename command.
var labelColor string

func init() {
	labelRenameCmd.Flags().StringVarP(&labelColor, "color", "c", "", "new colour as #rrggbb (default: keep)")

	labelCmd.AddCommand(labelListCmd)
	labelCmd.AddCommand(labelCreateCmd)
	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelRemoveCmd)
	labelCmd.AddCommand(labelRenameCmd)
	labelCmd.AddCommand(labelDestroyCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(guessCmd)
}

// findLabel returns the known label named name, ignoring case and accents.
func findLabel(name string) (domain.Label, error) {
	want := domain.NewLabel(name, "")
	for _, l := range labelService.Labels() {
		if l.Equal(want) {
			return l, nil
		}
	}
	return domain.Label{}, fmt.Errorf("label %q: %w", name, domain.ErrLabelNotFound)
}

func requireLabelServices() error {
	if labelService == nil {
		return errors.New("label service not configured")
	}
	if documentService == nil {
		return errors.New("document service not configured")
	}
	return nil
}

func runLabelList(cmd *cobra.Command, _ []string) error {
	if labelService == nil {
		return errors.New("label service not configured")
	}

	labels := labelService.Labels()
	if len(labels) == 0 {
		cmd.Println("No labels.")
		return nil
	}
	for _, l := range labels {
		cmd.Printf("  %s %s\n", labelChip(l), dimStyle.Render(l.ColorString()))
	}
	cmd.Printf("\nTotal: %d labels\n", len(labels))
	return nil
}

func runLabelCreate(cmd *cobra.Command, args []string) error {
	if err := requireLabelServices(); err != nil {
		return err
	}

	if _, err := domain.ParseColor(args[1]); err != nil {
		return err
	}
	label := domain.NewLabel(args[0], args[1])

	var doc domain.Document
	if len(args) == 3 {
		var err error
		if doc, err = documentService.Get(args[2]); err != nil {
			return err
		}
	}

	if err := labelService.CreateLabel(cmd.Context(), label, doc); err != nil {
		return err
	}
	cmd.Printf("Label %s created.\n", labelChip(label))
	return nil
}

func runLabelAdd(cmd *cobra.Command, args []string) error {
	if err := requireLabelServices(); err != nil {
		return err
	}

	doc, err := documentService.Get(args[0])
	if err != nil {
		return err
	}
	label, err := findLabel(args[1])
	if err != nil {
		return err
	}
	if err := labelService.AddLabel(cmd.Context(), doc, label, true); err != nil {
		return err
	}
	cmd.Printf("%s labelled %s.\n", doc.ID(), labelChip(label))
	return nil
}

func runLabelRemove(cmd *cobra.Command, args []string) error {
	if err := requireLabelServices(); err != nil {
		return err
	}

	doc, err := documentService.Get(args[0])
	if err != nil {
		return err
	}
	label, err := findLabel(args[1])
	if err != nil {
		return err
	}
	if err := labelService.RemoveLabel(cmd.Context(), doc, label, true); err != nil {
		return err
	}
	cmd.Printf("%s no longer labelled %s.\n", doc.ID(), labelChip(label))
	return nil
}

func runLabelRename(cmd *cobra.Command, args []string) error {
	if labelService == nil {
		return errors.New("label service not configured")
	}

	old, err := findLabel(args[0])
	if err != nil {
		return err
	}
	color := old.ColorString()
	if labelColor != "" {
		if _, err := domain.ParseColor(labelColor); err != nil {
			return err
		}
		color = labelColor
	}
	updated := domain.NewLabel(args[1], color)

	if err := labelService.UpdateLabel(cmd.Context(), old, updated, newProgress(cmd.ErrOrStderr())); err != nil {
		return err
	}
	cmd.Printf("Label %s is now %s.\n", old.Name, labelChip(updated))
	return nil
}

func runLabelDestroy(cmd *cobra.Command, args []string) error {
	if labelService == nil {
		return errors.New("label service not configured")
	}

	label, err := findLabel(args[0])
	if err != nil {
		return err
	}
	if err := labelService.DestroyLabel(cmd.Context(), label, newProgress(cmd.ErrOrStderr())); err != nil {
		return err
	}
	cmd.Printf("Label %s destroyed.\n", label.Name)
	return nil
}

func runGuess(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	labels, err := documentService.GuessLabels(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		cmd.Println("No label guessed.")
		return nil
	}
	cmd.Println(labelChips(labels))
	return nil
}
