package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-assessor"
)

type Config struct {
	Tender           string            `mapstructure:"tender"`
	Role             string            `mapstructure:"role"`
	Candidates       string            `mapstructure:"candidates"`
	Mode             string            `mapstructure:"mode"`
	CriteriaFile     string            `mapstructure:"criteria-file"`
	RequirementsFile string            `mapstructure:"requirements-file"`
	Workers          int               `mapstructure:"workers"`
	Timeout          time.Duration     `mapstructure:"timeout"`
	Extraction       *ExtractionConfig `mapstructure:"extraction"`
	Output           *OutputConfig     `mapstructure:"output"`
	History          *HistoryConfig    `mapstructure:"history"`
	AI               *AIConfig         `mapstructure:"ai"`
}

type ExtractionConfig struct {
	Disabled         []string `mapstructure:"disabled"`
	MinSegmentLength int      `mapstructure:"min-segment-length"`
}

type OutputConfig struct {
	JSON string `mapstructure:"json"`
	XLSX string `mapstructure:"xlsx"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	Vertex   *VertexConfig `mapstructure:"vertex"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type VertexConfig struct {
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
	Model    string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-assessor extracts a role from a tender document and scores candidate CVs against it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-assessor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("mode", "role")
	viper.SetDefault("workers", 4)
	viper.SetDefault("timeout", 2*time.Minute)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", app+".db")
	viper.SetDefault("ai.provider", "gemini")

	viper.SetEnvPrefix("CV_ASSESSOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	// Without an explicit --config the file is optional; flags are enough.
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !(cfgFile == "" && errors.As(err, &notFound)) {
		log.Fatal(err)
	}
}

// bindFlags binds the flags of the command being executed. Binding happens
// at run time because several commands share the same keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.Extraction == nil {
		config.Extraction = &ExtractionConfig{}
	}
	if config.Output == nil {
		config.Output = &OutputConfig{}
	}
	if config.History == nil {
		config.History = &HistoryConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	return config, nil
}
