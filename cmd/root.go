package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "internship-matcher"
	envPrefix = "MATCHER"
)

type Config struct {
	Embedder *EmbedderConfig `mapstructure:"embedder"`
	Skills   *SkillsConfig   `mapstructure:"skills"`
	Catalog  *CatalogConfig  `mapstructure:"catalog"`
	Matching *MatchingConfig `mapstructure:"matching"`
	Server   *ServerConfig   `mapstructure:"server"`
}

type EmbedderConfig struct {
	Type      string        `mapstructure:"type"`
	Cache     bool          `mapstructure:"cache"`
	Serialize bool          `mapstructure:"serialize"`
	Gemini    *GeminiConfig `mapstructure:"gemini"`
	OpenAI    *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	Dimension  int    `mapstructure:"dimension"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OpenAIConfig struct {
	BaseURL     string `mapstructure:"base-url"`
	APIKeyEnv   string `mapstructure:"api-key-env"`
	Model       string `mapstructure:"model"`
	Dimension   int    `mapstructure:"dimension"`
	TimeoutSecs int    `mapstructure:"timeout-secs"`
	MaxRetries  int    `mapstructure:"max-retries"`
}

type SkillsConfig struct {
	Vocabulary []string `mapstructure:"vocabulary"`
}

type CatalogConfig struct {
	File string `mapstructure:"file"`
}

type MatchingConfig struct {
	Limit        int `mapstructure:"limit"`
	Workers      int `mapstructure:"workers"`
	MaxLogLength int `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	MaxUploadMB int    `mapstructure:"max-upload-mb"`
	Metrics     bool   `mapstructure:"metrics"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "internship-matcher ranks internship postings against a résumé",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("embedder.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is internship-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("embedder.type", providerTFIDF)
	v.SetDefault("embedder.cache", true)
	v.SetDefault("embedder.serialize", false)
	v.SetDefault("embedder.gemini.model", "gemini-embedding-001")
	v.SetDefault("embedder.gemini.dimension", 768)
	v.SetDefault("embedder.gemini.max-retries", 3)
	v.SetDefault("embedder.openai.api-key-env", "OPENAI_API_KEY")
	v.SetDefault("embedder.openai.timeout-secs", 30)
	v.SetDefault("embedder.openai.max-retries", 3)
	v.SetDefault("skills.vocabulary", []string{})
	v.SetDefault("catalog.file", "")
	v.SetDefault("matching.limit", 5)
	v.SetDefault("matching.workers", 1)
	v.SetDefault("matching.max-log-length", 200)
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.max-upload-mb", 10)
	v.SetDefault("server.metrics", true)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Without a config file every setting keeps its default. A file that is
	// present but broken is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if config.Embedder == nil {
		config.Embedder = &EmbedderConfig{}
	}
	if config.Embedder.Gemini == nil {
		config.Embedder.Gemini = &GeminiConfig{}
	}
	if config.Embedder.OpenAI == nil {
		config.Embedder.OpenAI = &OpenAIConfig{}
	}
	if config.Skills == nil {
		config.Skills = &SkillsConfig{}
	}
	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}
	if config.Matching == nil {
		config.Matching = &MatchingConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
