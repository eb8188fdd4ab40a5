package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/spigell/internship-matcher/internal/catalog"
	"github.com/spigell/internship-matcher/internal/matching"
	"github.com/spigell/internship-matcher/internal/skills"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table or json)", s)
	}
}

// Results writes ranked matches.
func Results(w io.Writer, format Format, results []*matching.MatchResult) error {
	if format == FormatJSON {
		if results == nil {
			results = []*matching.MatchResult{}
		}
		return writeJSON(w, map[string]any{"results": results})
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Posting", "Final", "Semantic", "Skill match", "Matched skills")
	for i, r := range results {
		matched := r.ExtractedSkills.Intersect(r.Posting.RequiredSkills)
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			r.Posting.Title,
			score(r.FinalScore),
			score(r.SemanticScore),
			score(r.SkillMatch),
			strings.Join(matched.Sorted(), ", "),
		}); err != nil {
			return fmt.Errorf("append result row: %w", err)
		}
	}
	return table.Render()
}

// Catalog writes the postings a document is ranked against.
func Catalog(w io.Writer, format Format, postings []catalog.Posting) error {
	if format == FormatJSON {
		type posting struct {
			Title          string          `json:"title"`
			Description    string          `json:"description"`
			RequiredSkills skills.SkillSet `json:"required_skills"`
		}
		out := make([]posting, len(postings))
		for i, p := range postings {
			out[i] = posting{Title: p.Title, Description: p.Description, RequiredSkills: p.RequiredSkills}
		}
		return writeJSON(w, map[string]any{"postings": out})
	}

	table := tablewriter.NewWriter(w)
	table.Header("Title", "Required skills", "Description")
	for _, p := range postings {
		if err := table.Append([]string{
			p.Title,
			strings.Join(p.RequiredSkills.Sorted(), ", "),
			p.Description,
		}); err != nil {
			return fmt.Errorf("append posting row: %w", err)
		}
	}
	return table.Render()
}

// Skills writes the skills extracted from a document.
func Skills(w io.Writer, format Format, found skills.SkillSet) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]any{"extracted_skills": found})
	}

	table := tablewriter.NewWriter(w)
	table.Header("Skill")
	for _, s := range found.Sorted() {
		if err := table.Append([]string{s}); err != nil {
			return fmt.Errorf("append skill row: %w", err)
		}
	}
	return table.Render()
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
