package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"user-hub/internal/domain"
	infracache "user-hub/internal/infrastructure/cache"
	"user-hub/internal/usecase"
)

var (
	commit    = "unknown"
	buildTime = "unknown"
)

// SetBuildInfo sets the commit hash and build time
func SetBuildInfo(c, bt string) {
	commit = c
	buildTime = bt
}

// versionInfo describes the build and the session cookie and cache key
// layout it speaks. A CLI and a server only share a redis cache when their
// layouts match.
type versionInfo struct {
	Version      string   `json:"version"`
	Commit       string   `json:"commit"`
	Built        string   `json:"built"`
	GoVersion    string   `json:"goVersion"`
	Platform     string   `json:"platform"`
	Cookies      []string `json:"cookies"`
	IdentityKey  string   `json:"identityCacheKey"`
	FavoritesKey string   `json:"favoritesCacheKey"`
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:      version,
		Commit:       commit,
		Built:        buildTime,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		Cookies:      []string{domain.UserCookieName, domain.SigCookieName},
		IdentityKey:  infracache.DefaultRedisPrefix + usecase.DefaultUserCacheKey,
		FavoritesKey: infracache.DefaultRedisPrefix + usecase.DefaultFavoritesCacheKey,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the userctl build, the session cookies it reads and the redis keys it caches under.`,
	// No config is needed to print the version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetBool("short")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		info := currentVersion()

		if short {
			fmt.Fprintln(cmd.OutOrStdout(), info.Version)
			return nil
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "userctl %s (user-hub)\n", info.Version)
		fmt.Fprintf(w, "  commit:          %s\n", info.Commit)
		fmt.Fprintf(w, "  built:           %s\n", info.Built)
		fmt.Fprintf(w, "  go version:      %s\n", info.GoVersion)
		fmt.Fprintf(w, "  platform:        %s\n", info.Platform)
		fmt.Fprintf(w, "  cookies:         %s, %s\n", info.Cookies[0], info.Cookies[1])
		fmt.Fprintf(w, "  identity key:    %s[:<session>]\n", info.IdentityKey)
		fmt.Fprintf(w, "  favorites key:   %s[:<session>]\n", info.FavoritesKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "print version string only")
	versionCmd.Flags().Bool("json", false, "output as JSON")
}
