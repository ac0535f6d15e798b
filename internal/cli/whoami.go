package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"user-hub/internal/cli/output"
	"user-hub/internal/domain"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Resolve the user behind the configured session cookies.

Examples:
  userctl whoami               # Show the current user
  userctl whoami --json        # Output as JSON`,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)

	whoamiCmd.Flags().Bool("json", false, "output as JSON")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	printer := newPrinter(cmd)
	warnIncompleteSession(printer, cfg)

	result := s.Users.Execute(cmd.Context())
	if !result.OK() {
		return result.Error()
	}

	if jsonOutput {
		return printer.JSON(result.Identity)
	}
	return printIdentity(printer, result.Identity)
}

func printIdentity(printer *output.Printer, identity *domain.Identity) error {
	printer.Header("Current user")

	table := output.NewTable(printer.Out(), []string{"Field", "Value"})
	table.AddRow("username", identity.Username)
	table.AddRow("itemname", identity.ItemName)
	table.AddRow("userid", identity.UserKey)
	table.AddRow("screenname", identity.ScreenName)
	table.AddRow("privileges", joinOrDash(identity.Privileges))
	table.AddRow("primary domain", printer.Flag(identity.IsPrimaryDomainUser))
	if identity.ImageInfo.Name != "" {
		table.AddRow("image", identity.ImageInfo.Name)
	}
	return table.Render()
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
