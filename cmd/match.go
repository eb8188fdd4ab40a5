package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/matching"
	"github.com/spigell/internship-matcher/internal/output"
	"github.com/spigell/internship-matcher/internal/skills"
)

const (
	PromptExit      = "exit"
	PromptAsJSON    = "Print results as json"
	detailSeparator = "----"
)

var matchCmd = &cobra.Command{
	Use:   "match <resume-file>",
	Short: "Rank the catalog against a résumé (.pdf, .docx or .txt)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().IntP("limit", "n", matching.DefaultLimit, "number of postings to return")
	matchCmd.Flags().StringP("output", "o", string(output.FormatTable), "output format: table or json")
	matchCmd.Flags().BoolP("interactive", "i", false, "browse the results in an interactive prompt")

	viper.BindPFlag("matching.limit", matchCmd.Flags().Lookup("limit"))
}

func match(cmd *cobra.Command, path string) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync()

	format, err := output.ParseFormat(cmd.Flag("output").Value.String())
	if err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}

	c, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the matcher", zap.Error(err))
	}

	text, err := readDocument(path)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err))
	}

	results, err := c.ranker.Rank(ctx, text, c.postings, config.Matching.Limit)
	if err != nil {
		logger.Fatal("ranking the catalog", zap.Error(err))
	}

	if len(results) == 0 {
		logger.Info("exiting", zap.String("reason", "no postings to show"))
		return
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if !interactive {
		if err := output.Results(os.Stdout, format, results); err != nil {
			logger.Fatal("printing results", zap.Error(err))
		}
		return
	}

	if err := browse(os.Stdout, results); err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// browse lets the user walk through the ranked postings one by one.
func browse(w io.Writer, results []*matching.MatchResult) error {
	items := resultLabels(results)
	items = append(items, PromptAsJSON, PromptExit)

	for {
		resultPrompt := promptui.Select{
			Label: "Choose a posting and press ENTER",
			Items: items,
			Size:  len(items),
		}

		idx, selected, err := resultPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		switch selected {
		case PromptExit:
			return nil
		case PromptAsJSON:
			if err := output.Results(w, output.FormatJSON, results); err != nil {
				return err
			}
		default:
			writeDetails(w, results[idx])
		}
	}
}

func resultLabels(results []*matching.MatchResult) []string {
	labels := make([]string, len(results))
	for i, r := range results {
		labels[i] = fmt.Sprintf("%d. %s (%s)", i+1, r.Posting.Title, strconv.FormatFloat(r.FinalScore, 'f', 3, 64))
	}
	return labels
}

func writeDetails(w io.Writer, r *matching.MatchResult) {
	matched := r.ExtractedSkills.Intersect(r.Posting.RequiredSkills)

	fmt.Fprintln(w, detailSeparator)
	fmt.Fprintf(w, "%s\n\n%s\n\n", r.Posting.Title, r.Posting.Description)
	fmt.Fprintf(w, "final score:    %.4f\n", r.FinalScore)
	fmt.Fprintf(w, "semantic score: %.4f\n", r.SemanticScore)
	fmt.Fprintf(w, "skill match:    %.4f\n", r.SkillMatch)
	fmt.Fprintf(w, "matched skills: %s\n", joinOrDash(matched.Sorted()))
	fmt.Fprintf(w, "missing skills: %s\n", joinOrDash(missingSkills(r.ExtractedSkills, r.Posting.RequiredSkills)))
	fmt.Fprintln(w, detailSeparator)
}

// missingSkills lists required skills the document lacks, sorted.
func missingSkills(have, required skills.SkillSet) []string {
	missing := make([]string, 0, len(required))
	for _, s := range required.Sorted() {
		if !have.Has(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
