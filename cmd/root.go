package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/resume-coach/internal/ai"
	"github.com/spigell/resume-coach/internal/ai/gemini"
	"github.com/spigell/resume-coach/internal/coach"
	"github.com/spigell/resume-coach/internal/logger"
	"github.com/spigell/resume-coach/internal/secrets"
	"github.com/spigell/resume-coach/internal/store"
	"go.uber.org/zap"
)

const (
	app = "resume-coach"

	geminiAPIKeyEnv = "GEMINI_API_KEY"
)

type Config struct {
	DBPath    string           `mapstructure:"db-path"`
	Listen    string           `mapstructure:"listen"`
	Interview *InterviewConfig `mapstructure:"interview"`
	AI        *AIConfig        `mapstructure:"ai"`
}

type InterviewConfig struct {
	GenerationTimeout    time.Duration `mapstructure:"generation-timeout"`
	QueueConcurrentTurns bool          `mapstructure:"queue-concurrent-turns"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	APIKey       string `mapstructure:"api-key"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-coach interviews an applicant and enriches the structured résumé with the answers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env file is fine, the environment is used as is.
	_ = godotenv.Load()

	for key, env := range map[string]string{
		"db-path":                "RESUME_COACH_DB_PATH",
		"listen":                 "RESUME_COACH_LISTEN",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("db-path", "./data/resume-coach.db")
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("interview.generation-timeout", 30*time.Second)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.max-log-length", 200)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("db-path", "", "path to the SQLite database")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("db-path", rootCmd.PersistentFlags().Lookup("db-path"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Without an explicit file all settings may come from flags, env and defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Interview == nil {
		config.Interview = &InterviewConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}

// setup builds the logger and config shared by all commands that touch the database.
func setup() (*zap.Logger, *Config) {
	var outputs []string
	if file := strings.TrimSpace(viper.GetString("log-file")); file != "" {
		outputs = append(outputs, file)
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), outputs...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}

func openStore(config *Config, logger *zap.Logger) *store.SQLite {
	repo, err := store.NewSQLite(config.DBPath, logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err), zap.String("db_path", config.DBPath))
	}
	logger.Debug("database opened", zap.String("db_path", config.DBPath))
	return repo
}

func newOrchestrator(ctx context.Context, config *Config, repo store.Repository, logger *zap.Logger) *coach.Orchestrator {
	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("text generation disabled, answers will not be merged", zap.Error(err))
		generator = ai.Disabled{}
	}

	orchestrator, err := coach.New(coach.Config{
		GenerationTimeout:    config.Interview.GenerationTimeout,
		QueueConcurrentTurns: config.Interview.QueueConcurrentTurns,
	}, coach.Deps{
		Resumes:       repo,
		Conversations: repo,
		Generator:     generator,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("creating the interview", zap.Error(err))
	}
	return orchestrator
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		return ai.Disabled{}, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   geminiAPIKeyEnv,
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxLogLength, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("text generation enabled", zap.String("provider", "gemini"), zap.String("model", generator.Model()))
	return generator, nil
}
