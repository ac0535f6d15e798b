package cli

import (
	"github.com/spf13/cobra"

	"user-hub/internal/cli/output"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List the signed-in user's favorites",
	Long: `Resolve the current user and list their favorites.

Examples:
  userctl favorites            # Show favorites as a table
  userctl favorites --json     # Output as JSON`,
	RunE: runFavorites,
}

func init() {
	rootCmd.AddCommand(favoritesCmd)

	favoritesCmd.Flags().Bool("json", false, "output as JSON")
}

func runFavorites(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	printer := newPrinter(cmd)
	warnIncompleteSession(printer, cfg)

	result := s.Favorites.Execute(cmd.Context())
	if !result.OK() {
		return result.Error()
	}

	if jsonOutput {
		return printer.JSON(result.Favorites)
	}

	printer.Header("Favorites of " + result.Favorites.ItemName)
	if len(result.Favorites.Favorites) == 0 {
		printer.Print("%s", printer.Dim("no favorites"))
		return nil
	}

	table := output.NewTable(printer.Out(), []string{"Identifier", "Title", "Media type", "Updated"})
	for _, f := range result.Favorites.Favorites {
		table.AddRow(f.Identifier, f.Title, f.MediaType, f.UpdateDate)
	}
	if err := table.Render(); err != nil {
		return err
	}
	printer.Success("%d favorites", table.Len())
	return nil
}
