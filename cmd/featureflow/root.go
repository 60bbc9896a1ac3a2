package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/featureflow/config"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = []struct {
	flag, key, usage string
}{
	{"db", config.KeyDBPath, "SQLite database path"},
	{"agent", config.KeyAgentCommand, "coding agent command"},
	{"gh", config.KeyGHCommand, "GitHub CLI command"},
	{"poll-interval", config.KeyPollInterval, "pull request poll interval"},
	{"listen", config.KeyListenAddr, "HTTP listen address"},
	{"transcript-dir", config.KeyTranscriptDir, "directory for agent transcripts"},
	{"prompt-dir", config.KeyPromptDir, "directory with prompt template overrides"},
	{"repos-file", config.KeyReposFile, "YAML repository table"},
	{"log-level", config.KeyLogLevel, "log level (debug, info, warn, error)"},
	{"log-format", config.KeyLogFormat, "log format (text, json)"},
}

type rootOptions struct {
	flags map[string]*string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{flags: make(map[string]*string)}

	cmd := &cobra.Command{
		Use:   "featureflow",
		Short: "Chat-driven feature requests carried out by a coding agent",
		Long: `featureflow turns a chat thread into a feature request workflow: pick a
repository, describe a feature, approve the coding agent's plan, and follow
the pull request it opens until it is merged or closed.

Configuration is read from ~/.config/featureflow/config.yaml, ./.featureflow.yaml,
FEATUREFLOW_* environment variables and flags, later sources winning.`,
		SilenceUsage: true,
	}

	for _, f := range flagKeys {
		opts.flags[f.key] = cmd.PersistentFlags().String(f.flag, "", f.usage)
	}

	cmd.AddCommand(
		newServeCmd(opts),
		newReposCmd(opts),
		newSessionsCmd(opts),
		newTranscriptsCmd(opts),
	)
	return cmd
}

// load resolves configuration and builds the logger it describes.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Settings, *slog.Logger, error) {
	flags := make(map[string]string, len(o.flags))
	for key, v := range o.flags {
		flags[key] = *v
	}

	rc := config.DefaultResolverConfig()
	rc.ErrWriter = cmd.ErrOrStderr()
	resolved := config.NewResolver(rc).ResolveWithFlags(flags)

	settings, err := config.Load(resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	return settings, newLogger(cmd.ErrOrStderr(), settings.LogLevel, settings.LogFormat), nil
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
