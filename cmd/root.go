package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobhackr/internal/filtering"
	"github.com/spigell/jobhackr/internal/headhunter"
	"github.com/spigell/jobhackr/internal/profile"
	"github.com/spigell/jobhackr/internal/quota"
)

const (
	app       = "jobhackr"
	envPrefix = "JOBHACKR"
)

type Config struct {
	Profile     *profile.Config   `mapstructure:"profile"`
	Filters     *filtering.Config `mapstructure:"filters"`
	Quota       *QuotaConfig      `mapstructure:"quota"`
	History     *HistoryConfig    `mapstructure:"history"`
	Sources     *SourcesConfig    `mapstructure:"sources"`
	AI          *AIConfig         `mapstructure:"ai"`
	Dictionary  string            `mapstructure:"dictionary"`
	Schedule    string            `mapstructure:"schedule"`
	MetricsAddr string            `mapstructure:"metrics-addr"`
}

type QuotaConfig struct {
	// Limits override the limits of the profile tier.
	Limits   *quota.Limits `mapstructure:"limits"`
	Timezone string        `mapstructure:"timezone"`
	Redis    *RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password" json:"-"`
	PasswordFile string `mapstructure:"password-file"`
	DB           int    `mapstructure:"db"`
	Prefix       string `mapstructure:"prefix"`
}

type HistoryConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type SourcesConfig struct {
	Files      []string          `mapstructure:"files"`
	Parallel   int               `mapstructure:"parallel"`
	Limit      int               `mapstructure:"limit"`
	HeadHunter *HeadHunterConfig `mapstructure:"headhunter"`
}

type HeadHunterConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	Token     string                   `mapstructure:"token" json:"-"`
	TokenFile string                   `mapstructure:"token-file"`
	TokenEnv  string                   `mapstructure:"token-env"`
	UserAgent string                   `mapstructure:"user-agent"`
	Resume    string                   `mapstructure:"resume"`
	RPS       float64                  `mapstructure:"rps"`
	Search    *headhunter.SearchParams `mapstructure:"search"`
}

type AIConfig struct {
	// Template is a text/template file used when Gemini is off or fails.
	Template string        `mapstructure:"template"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	APIKeyEnv    string `mapstructure:"api-key-env"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "jobhackr scores job postings against your profile and applies to the best ones",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobhackr.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only commands that need a profile fail later on a missing config.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil || config.Profile == nil {
		return nil, errors.New("profile section is required in the config")
	}

	return config, nil
}
