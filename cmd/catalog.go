package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/output"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the internship postings résumés are ranked against",
	Run: func(cmd *cobra.Command, _ []string) {
		listCatalog(cmd)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringP("output", "o", string(output.FormatTable), "output format: table or json")
}

func listCatalog(cmd *cobra.Command) {
	logger, config := setup()
	defer logger.Sync()

	format, err := output.ParseFormat(cmd.Flag("output").Value.String())
	if err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}

	postings, err := loadPostings(config.Catalog)
	if err != nil {
		logger.Fatal("loading the catalog", zap.Error(err))
	}

	if err := output.Catalog(os.Stdout, format, postings); err != nil {
		logger.Fatal("printing the catalog", zap.Error(err))
	}
}
