package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/llm"
)

func newCredentialsCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the AI provider API key",
		Long: `Manage the API key used for AI-generated values.

When no key is stored, the first of FORMPILOT_API_KEY, GEMINI_API_KEY and
OPENAI_API_KEY that is set is used without being saved.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set KEY",
			Short: "Store the API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, global, func(a *app) error {
					if err := llm.SaveCredentials(cmd.Context(), a.store, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("API key saved")+" "+mutedStyle.Render(llm.Mask(strings.TrimSpace(args[0]))))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, global, func(a *app) error {
					if err := llm.ClearCredentials(cmd.Context(), a.store); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("API key removed"))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the API key comes from",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, global, func(a *app) error {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s %s\n", headerStyle.Render("provider:"), a.cfg.LLM().GetProvider())

					creds, err := llm.LoadCredentials(cmd.Context(), a.store)
					if err != nil {
						return err
					}
					if creds.APIKey != "" {
						fmt.Fprintf(out, "%s stored %s\n", headerStyle.Render("api key:"), llm.Mask(creds.APIKey))
						return nil
					}
					for _, name := range apiKeyEnvVars {
						if v := strings.TrimSpace(os.Getenv(name)); v != "" {
							fmt.Fprintf(out, "%s $%s %s\n", headerStyle.Render("api key:"), name, llm.Mask(v))
							return nil
						}
					}
					fmt.Fprintf(out, "%s %s\n", headerStyle.Render("api key:"), errorStyle.Render("not configured"))
					return nil
				})
			},
		},
	)
	return cmd
}
