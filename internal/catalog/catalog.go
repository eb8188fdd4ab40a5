package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spigell/internship-matcher/internal/skills"
)

// Posting is a single internship offer. Postings are loaded once and never mutated.
type Posting struct {
	Title          string
	Description    string
	RequiredSkills skills.SkillSet
}

type rawPosting struct {
	Title          string   `mapstructure:"title"`
	Description    string   `mapstructure:"description"`
	SkillsRequired []string `mapstructure:"skills-required"`
}

var seed = []rawPosting{
	{
		Title:          "Machine Learning Intern",
		Description:    "Looking for an intern skilled in Python, ML algorithms, data cleaning, and deep learning.",
		SkillsRequired: []string{"python", "machine learning", "deep learning", "pandas"},
	},
	{
		Title:          "Frontend Developer Intern",
		Description:    "Intern must know React, JavaScript, HTML, CSS, and frontend development.",
		SkillsRequired: []string{"react", "javascript", "html", "css"},
	},
	{
		Title:          "Data Analyst Intern",
		Description:    "Experience with SQL, Excel, Python, dashboards and data visualization preferred.",
		SkillsRequired: []string{"sql", "excel", "python", "data analysis"},
	},
	{
		Title:          "NLP Research Intern",
		Description:    "Knowledge of NLP, transformers, deep learning, and Python is required.",
		SkillsRequired: []string{"nlp", "python", "deep learning"},
	},
	{
		Title:          "Backend Developer Intern",
		Description:    "Looking for backend developer with Python, Flask, APIs, and database management skills.",
		SkillsRequired: []string{"python", "flask", "api", "database"},
	},
}

// Default returns a fresh copy of the built-in seed catalog.
func Default() []Posting {
	out, err := build(seed)
	if err != nil {
		panic(err)
	}
	return out
}

// Load reads postings from a yaml, json or toml file with a top-level
// "postings" list.
func Load(path string) ([]Posting, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog file path is empty")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading catalog %q: %w", path, err)
	}

	var entries []rawPosting
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &entries,
		WeaklyTypedInput: true,
		// a misspelled key would otherwise leave a posting without skills
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.Get("postings")); err != nil {
		return nil, fmt.Errorf("decoding catalog %q: %w", path, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog %q has no postings", path)
	}

	return build(entries)
}

func build(entries []rawPosting) ([]Posting, error) {
	out := make([]Posting, 0, len(entries))
	for i, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			return nil, fmt.Errorf("posting #%d has no title", i+1)
		}
		out = append(out, Posting{
			Title:          title,
			Description:    strings.TrimSpace(e.Description),
			RequiredSkills: skills.NewSkillSet(e.SkillsRequired...),
		})
	}
	return out, nil
}

// Descriptions returns the description of every posting, in catalog order.
func Descriptions(postings []Posting) []string {
	out := make([]string, len(postings))
	for i, p := range postings {
		out[i] = p.Description
	}
	return out
}
