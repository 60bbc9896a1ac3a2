package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Configuration keys.
const (
	KeyDBPath             = "db_path"
	KeyAgentCommand       = "agent_command"
	KeyGHCommand          = "gh_command"
	KeyPollInterval       = "poll_interval"
	KeyListenAddr         = "listen_addr"
	KeySlackBotToken      = "slack_bot_token"
	KeySlackSigningSecret = "slack_signing_secret"
	KeySlackAPIURL        = "slack_api_url"
	KeyOperatorWebhookURL = "operator_webhook_url"
	KeyGitHubToken        = "github_token"
	KeyTranscriptDir      = "transcript_dir"
	KeyPromptDir          = "prompt_dir"
	KeyReposFile          = "repos_file"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
)

// Defaults returns the built-in value of every key. Secrets default empty.
func Defaults() map[string]string {
	return map[string]string{
		KeyDBPath:             "/app/data/featureflow.db",
		KeyAgentCommand:       "claude",
		KeyGHCommand:          "gh",
		KeyPollInterval:       "5m",
		KeyListenAddr:         ":8080",
		KeySlackBotToken:      "",
		KeySlackSigningSecret: "",
		KeySlackAPIURL:        "https://slack.com/api",
		KeyOperatorWebhookURL: "",
		KeyGitHubToken:        "",
		KeyTranscriptDir:      "/app/data/transcripts",
		KeyPromptDir:          "",
		KeyReposFile:          "",
		KeyLogLevel:           "info",
		KeyLogFormat:          "text",
	}
}

// DefaultResolverConfig is the resolver setup used by the featureflow binary.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       "FEATUREFLOW_",
		GlobalConfigDir: "featureflow",
		LocalConfigPath: ".featureflow.yaml",
		Defaults:        Defaults(),
	}
}

// Settings is the typed view of a resolved configuration.
type Settings struct {
	DBPath             string
	AgentCommand       string
	GHCommand          string
	PollInterval       time.Duration
	ListenAddr         string
	SlackBotToken      string
	SlackSigningSecret string
	SlackAPIURL        string
	OperatorWebhookURL string
	GitHubToken        string
	TranscriptDir      string
	PromptDir          string
	LogLevel           slog.Level
	LogFormat          string
	Repos              *Repos
}

// Load converts resolved values into Settings and builds the repository table.
func Load(c *Resolved) (*Settings, error) {
	interval, err := time.ParseDuration(c.Get(KeyPollInterval))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyPollInterval, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyPollInterval, interval)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Get(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}

	format := strings.ToLower(c.Get(KeyLogFormat))
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, format)
	}

	if c.Get(KeyAgentCommand) == "" {
		return nil, fmt.Errorf("%s is required", KeyAgentCommand)
	}

	repos := DefaultRepos()
	if path := c.Get(KeyReposFile); path != "" {
		repos, err = LoadRepos(path)
		if err != nil {
			return nil, err
		}
	}

	return &Settings{
		DBPath:             c.Get(KeyDBPath),
		AgentCommand:       c.Get(KeyAgentCommand),
		GHCommand:          c.Get(KeyGHCommand),
		PollInterval:       interval,
		ListenAddr:         c.Get(KeyListenAddr),
		SlackBotToken:      c.Get(KeySlackBotToken),
		SlackSigningSecret: c.Get(KeySlackSigningSecret),
		SlackAPIURL:        strings.TrimSuffix(c.Get(KeySlackAPIURL), "/"),
		OperatorWebhookURL: c.Get(KeyOperatorWebhookURL),
		GitHubToken:        c.Get(KeyGitHubToken),
		TranscriptDir:      c.Get(KeyTranscriptDir),
		PromptDir:          c.Get(KeyPromptDir),
		LogLevel:           level,
		LogFormat:          format,
		Repos:              repos,
	}, nil
}
