package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

var (
	searchLimit  int
	searchJSON   bool
	searchStrict bool
	searchNoSort bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Finds documents whose labels or content match every word of the query.
Words tolerate typos and match as prefixes unless --strict is given.
Results are sorted by relevance, then most recent first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [sentence]",
	Short: "Suggest spelling corrections for a search",
	Long: `Proposes corrected search sentences, keeping only those that match
at least one document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchStrict, "strict", false, "match words exactly")
	searchCmd.Flags().BoolVar(&searchNoSort, "no-sort", false, "keep index order instead of relevance order")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := strings.Join(args, " ")
	opts := domain.DefaultSearchOptions()
	opts.Limit = searchLimit
	if opts.Limit <= 0 {
		opts.Limit = settings.Search.DefaultLimit
	}
	opts.Sort = !searchNoSort
	if searchStrict {
		opts.Mode = domain.SearchModeStrict
	}

	docs, err := searchService.FindDocuments(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No results found.")
		suggestions, err := searchService.FindSuggestions(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("suggestions failed: %w", err)
		}
		if len(suggestions) > 0 {
			cmd.Printf("Did you mean: %s?\n", strings.Join(suggestions, ", "))
		}
		return nil
	}

	outputDocumentTable(cmd, docs)
	return nil
}

// documentJSON is the JSON shape of a document.
type documentJSON struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	Date   string   `json:"date"`
	Pages  int      `json:"pages"`
	Labels []string `json:"labels"`
	Path   string   `json:"path"`
}

func outputSearchJSON(cmd *cobra.Command, docs []domain.Document) error {
	out := make([]documentJSON, len(docs))
	for i, doc := range docs {
		out[i] = documentJSON{
			ID:     doc.ID(),
			Type:   doc.Type(),
			Date:   doc.Date().Format("2006-01-02"),
			Pages:  doc.PageCount(),
			Labels: doc.Labels().Names(),
			Path:   doc.Path(),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputDocumentTable(cmd *cobra.Command, docs []domain.Document) {
	for i, doc := range docs {
		// Format: [N] docid date pages labels
		cmd.Printf("  [%d] %s  %s  %s  %s\n",
			i+1,
			titleStyle.Render(doc.ID()),
			doc.Date().Format("2006-01-02"),
			pages(doc.PageCount()),
			labelChips(doc.Labels()))
		cmd.Printf("      %s\n", dimStyle.Render(doc.Path()))
	}
	cmd.Println()
	cmd.Printf("Total: %d documents\n", len(docs))
}

func pages(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	suggestions, err := searchService.FindSuggestions(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("suggestions failed: %w", err)
	}
	if len(suggestions) == 0 {
		cmd.Println("No suggestions.")
		return nil
	}
	for _, s := range suggestions {
		cmd.Println(s)
	}
	return nil
}
