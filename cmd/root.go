package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "talent-match"
)

type Config struct {
	AI     *AIConfig     `mapstructure:"ai"`
	Engine *EngineConfig `mapstructure:"engine"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	APIKey            string        `mapstructure:"api-key"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryBackoff      time.Duration `mapstructure:"retry-backoff"`
	Temperature       float32       `mapstructure:"temperature"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
}

type EngineConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	BatchTimeout      time.Duration `mapstructure:"batch-timeout"`
	RankingLimit      int           `mapstructure:"ranking-limit"`
	MinimumPercentage int           `mapstructure:"minimum-percentage"`
	MaxFieldLength    int           `mapstructure:"max-field-length"`
	Language          string        `mapstructure:"language"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-match scores candidates against vacancies, ranks them and builds technical tests",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-match.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.timeout", "20s")
	viper.SetDefault("ai.gemini.retry-backoff", "500ms")
	viper.SetDefault("ai.gemini.temperature", 0.2)
	viper.SetDefault("engine.concurrency", 5)
	viper.SetDefault("engine.ranking-limit", 10)
	viper.SetDefault("engine.language", "Spanish")
}

func initConfig() {
	// The version command works without a config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Engine == nil {
		config.Engine = &EngineConfig{}
	}

	return config, nil
}
