package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, view, delete, annotate, or redate indexed documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info and text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document from the index and disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentExtraTextCmd = &cobra.Command{
	Use:   "extra-text [doc-id] [text]",
	Short: "Set searchable text not found on the pages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentExtraText,
}

var documentSetDateCmd = &cobra.Command{
	Use:   "set-date [doc-id] [YYYY-MM-DD]",
	Short: "Change the date of a document",
	Long:  `Changes the date of a document. The document gets a new id built from the date.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentSetDate,
}

// documentLimit is a flag for the list command.
var documentLimit int

func init() {
	documentListCmd.Flags().IntVarP(&documentLimit, "limit", "n", 0, "maximum number of documents (0 = all)")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentExtraTextCmd)
	documentCmd.AddCommand(documentSetDateCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs := documentService.List()
	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	if documentLimit > 0 && len(docs) > documentLimit {
		docs = docs[:documentLimit]
	}
	outputDocumentTable(cmd, docs)
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", titleStyle.Render(doc.ID()))
	cmd.Printf("  Type:     %s\n", doc.Type())
	cmd.Printf("  Date:     %s\n", doc.Date().Format("2006-01-02"))
	cmd.Printf("  Pages:    %d\n", doc.PageCount())
	cmd.Printf("  Path:     %s\n", doc.Path())
	if labels := doc.Labels(); len(labels) > 0 {
		cmd.Printf("  Labels:   %s\n", labelChips(labels))
	}
	if extra := doc.ExtraText(); extra != "" {
		cmd.Printf("  Extra:    %s\n", extra)
	}

	if text := strings.TrimSpace(doc.Text()); text != "" {
		cmd.Println()
		cmd.Println(text)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentExtraText(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	text := strings.Join(args[1:], " ")
	if err := documentService.SetExtraText(cmd.Context(), args[0], text); err != nil {
		return fmt.Errorf("failed to set extra text: %w", err)
	}
	if text == "" {
		cmd.Printf("Extra text of %s cleared.\n", args[0])
		return nil
	}
	cmd.Printf("Extra text of %s updated.\n", args[0])
	return nil
}

func runDocumentSetDate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	date, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[1])
	}
	newID, err := documentService.SetDate(cmd.Context(), args[0], date)
	if err != nil {
		return fmt.Errorf("failed to set date: %w", err)
	}
	cmd.Printf("Document %s is now %s.\n", args[0], newID)
	return nil
}
