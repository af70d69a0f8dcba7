package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the work directory, data directory and search settings.

Changes apply the next time sercha-docs runs.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change a setting. Available keys:
  workdir                     directory holding one directory per document
  datadir                     directory holding the index and label models
  verbose                     print debug logs (true/false)
  search.fuzzy_max_distance   typos tolerated per word
  search.default_limit        results shown when --limit is not given`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	s, err := settingsService.Get()
	if err != nil {
		return err
	}

	values := map[string]string{
		"workdir":                   s.WorkDir,
		"datadir":                   s.DataDir,
		"verbose":                   strconv.FormatBool(s.Verbose),
		"search.fuzzy_max_distance": strconv.Itoa(s.Search.FuzzyMaxDistance),
		"search.default_limit":      strconv.Itoa(s.Search.DefaultLimit),
	}

	cmd.Printf("Settings (%s):\n\n", dimStyle.Render(settingsService.Path()))
	for _, key := range settingsService.Keys() {
		cmd.Printf("  %-27s %s\n", key, values[key])
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s set to %s.\n", args[0], args[1])
	return nil
}
