package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/autofill/generate"
	"github.com/entrhq/formpilot/pkg/config"
	"github.com/entrhq/formpilot/pkg/kv"
	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/entrhq/formpilot/pkg/llm/gemini"
	"github.com/entrhq/formpilot/pkg/llm/openai"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/profile"
)

// Environment variables consulted for the API key, in order, when no key
// is stored.
var apiKeyEnvVars = []string{"FORMPILOT_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dataDir    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "formpilot",
		Short:         "Fill web forms from profiles or AI-generated values",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `formpilot detects the fields of HTML forms and fills them.

Values come from the active profile, from a generative AI model, or from
both: profile values win and the model fills whatever the profile could
not.`,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.formpilot/config.json)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory for profiles and credentials (default ~/.formpilot)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newFillCmd(opts),
		newProfileCmd(opts),
		newCredentialsCmd(opts),
	)
	return root
}

// app holds the collaborators a command runs with.
type app struct {
	cfg      *config.Manager
	store    kv.Store
	profiles *profile.Store
	logger   *logging.Logger
	close    func() error
}

// openApp loads the config, opens the configured store and builds the
// logger. Callers must call close.
func openApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	configPath := opts.configPath
	if configPath == "" && opts.dataDir != "" {
		configPath = filepath.Join(opts.dataDir, "config.json")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cmd, opts.verbose)

	backend, path, err := cfg.Storage().Resolve(opts.dataDir)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	store, closeStore, err := kv.Open(backend, path)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("failed to open %s store: %w", backend, err)
	}
	logger.Debugf("using %s store at %q", backend, path)

	return &app{
		cfg:      cfg,
		store:    store,
		profiles: profile.NewStore(store, profile.WithLogger(logger.With("profile"))),
		logger:   logger,
		close: func() error {
			return errors.Join(closeStore(), logger.Close())
		},
	}, nil
}

func newLogger(cmd *cobra.Command, verbose bool) *logging.Logger {
	if verbose {
		return logging.NewWriterLogger("formpilot", cmd.ErrOrStderr())
	}
	logger, err := logging.NewLogger("formpilot")
	if err != nil {
		return logging.Discard("formpilot")
	}
	return logger
}

// credentialStore returns the store the generator reads its API key from.
// A stored key wins; otherwise the first API key environment variable that
// is set is served from memory without being persisted.
func (a *app) credentialStore(ctx context.Context) (kv.Store, error) {
	creds, err := llm.LoadCredentials(ctx, a.store)
	if err != nil {
		return nil, err
	}
	if creds.APIKey != "" {
		return a.store, nil
	}
	for _, name := range apiKeyEnvVars {
		key := strings.TrimSpace(os.Getenv(name))
		if key == "" {
			continue
		}
		mem := kv.NewMemoryStore()
		if err := llm.SaveCredentials(ctx, mem, key); err != nil {
			return nil, err
		}
		a.logger.Debugf("using API key from $%s", name)
		return mem, nil
	}
	return a.store, nil
}

// providerFactory builds the LLM client factory named by the llm section.
func providerFactory(section *config.LLMSection) (llm.Factory, error) {
	model, baseURL := section.GetModel(), section.GetBaseURL()
	switch provider := section.GetProvider(); provider {
	case config.ProviderGemini:
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		if baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(baseURL))
		}
		return gemini.Factory(opts...), nil
	case config.ProviderOpenAI:
		var opts []openai.Option
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.Factory(opts...), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// newGenerator wires the AI value generator from configuration.
func (a *app) newGenerator(ctx context.Context) (*generate.Generator, error) {
	factory, err := providerFactory(a.cfg.LLM())
	if err != nil {
		return nil, err
	}
	store, err := a.credentialStore(ctx)
	if err != nil {
		return nil, err
	}
	settings := a.cfg.Autofill().Snapshot()
	return generate.NewGenerator(store, factory,
		generate.WithMaxAttempts(settings.MaxAttempts),
		generate.WithBaseDelay(settings.BaseDelay),
		generate.WithMaxPromptTokens(settings.MaxPromptTokens),
		generate.WithLogger(a.logger.With("generate")),
	), nil
}
