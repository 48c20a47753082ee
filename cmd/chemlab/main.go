package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/chemlab/internal/catalog"
)

var rootCmd = &cobra.Command{
	Use:          "chemlab",
	Short:        "Virtual chemistry lab backend",
	Long:         "chemlab serves lab benches, quizzes and turbidity analysis for the virtual chemistry lab, and runs the same checks from the command line.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("fixtures", "", "Catalog YAML file (overrides FIXTURES_FILE; default: built-in catalog)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(gradeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadCatalog resolves the catalog from --fixtures, then fallback, then the
// embedded fixtures.
func loadCatalog(cmd *cobra.Command, fallback string) (*catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("fixtures")
	if path == "" {
		path = fallback
	}
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
