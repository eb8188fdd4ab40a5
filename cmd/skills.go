package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/output"
)

var skillsCmd = &cobra.Command{
	Use:   "skills <resume-file>",
	Short: "Print the skills found in a résumé",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		extractSkills(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)

	skillsCmd.Flags().StringP("output", "o", string(output.FormatTable), "output format: table or json")
}

func extractSkills(cmd *cobra.Command, path string) {
	logger, config := setup()
	defer logger.Sync()

	format, err := output.ParseFormat(cmd.Flag("output").Value.String())
	if err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}

	c, err := buildComponents(context.Background(), config, logger)
	if err != nil {
		logger.Fatal("preparing the matcher", zap.Error(err))
	}

	text, err := readDocument(path)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err))
	}

	if err := output.Skills(os.Stdout, format, c.ranker.ExtractSkills(text)); err != nil {
		logger.Fatal("printing skills", zap.Error(err))
	}
}
