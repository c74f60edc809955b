package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/formpilot/pkg/profile"
)

// dataFlags maps a flag to the profile field it sets.
var dataFlags = []struct {
	name  string
	usage string
	field func(*profile.Data) *string
}{
	{"first-name", "first name", func(d *profile.Data) *string { return &d.FirstName }},
	{"last-name", "last name", func(d *profile.Data) *string { return &d.LastName }},
	{"full-name", "full name", func(d *profile.Data) *string { return &d.FullName }},
	{"email", "email address", func(d *profile.Data) *string { return &d.Email }},
	{"phone", "phone number", func(d *profile.Data) *string { return &d.Phone }},
	{"address", "street address", func(d *profile.Data) *string { return &d.Address }},
	{"city", "city", func(d *profile.Data) *string { return &d.City }},
	{"state", "state or province", func(d *profile.Data) *string { return &d.State }},
	{"zip", "postal code", func(d *profile.Data) *string { return &d.Zip }},
	{"country", "country", func(d *profile.Data) *string { return &d.Country }},
	{"company", "company", func(d *profile.Data) *string { return &d.Company }},
	{"job-title", "job title", func(d *profile.Data) *string { return &d.JobTitle }},
	{"linkedin", "LinkedIn URL", func(d *profile.Data) *string { return &d.LinkedIn }},
	{"github", "GitHub URL", func(d *profile.Data) *string { return &d.GitHub }},
	{"twitter", "Twitter handle", func(d *profile.Data) *string { return &d.Twitter }},
	{"website", "personal website", func(d *profile.Data) *string { return &d.Website }},
}

func addDataFlags(f *pflag.FlagSet) {
	for _, df := range dataFlags {
		f.String(df.name, "", df.usage)
	}
	f.StringArray("set", nil, "custom field as key=value (repeatable)")
	f.String("description", "", "profile description")
}

// applyDataFlags copies every changed data flag into d.
func applyDataFlags(f *pflag.FlagSet, d *profile.Data) error {
	for _, df := range dataFlags {
		if !f.Changed(df.name) {
			continue
		}
		v, err := f.GetString(df.name)
		if err != nil {
			return err
		}
		*df.field(d) = v
	}

	custom, err := f.GetStringArray("set")
	if err != nil {
		return err
	}
	for _, kv := range custom {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		if d.CustomFields == nil {
			d.CustomFields = make(map[string]string)
		}
		d.CustomFields[key] = value
	}
	return nil
}

func newProfileCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage fill profiles",
		Long: `Manage named profiles of personal and professional data.

The active profile is the default data source of "formpilot fill".
Profiles are referenced by name (case-insensitive) or id.`,
	}
	cmd.AddCommand(
		newProfileListCmd(global),
		newProfileShowCmd(global),
		newProfileCreateCmd(global),
		newProfileUpdateCmd(global),
		newProfileDeleteCmd(global),
		newProfileUseCmd(global),
		newProfileExportCmd(global),
		newProfileImportCmd(global),
	)
	return cmd
}

// withApp opens the app around fn.
func withApp(cmd *cobra.Command, global *globalOptions, fn func(a *app) error) error {
	a, err := openApp(cmd, global)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// resolveProfile finds a profile by id, then by name.
func resolveProfile(ctx context.Context, store *profile.Store, ref string) (*profile.Profile, error) {
	p, err := store.Get(ctx, ref)
	var nf *profile.NotFoundError
	if errors.As(err, &nf) {
		return store.FindByName(ctx, ref)
	}
	return p, err
}

func newProfileListCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				ctx := cmd.Context()
				profiles, err := a.profiles.List(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(profiles) == 0 {
					fmt.Fprintln(out, mutedStyle.Render("No profiles. Create one with: formpilot profile create NAME"))
					return nil
				}
				active, err := a.profiles.Active(ctx)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tNAME\tID\tEMAIL")
				for _, p := range profiles {
					marker := ""
					if active != nil && active.ID == p.ID {
						marker = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, p.Name, p.ID, p.Data.Email)
				}
				return tw.Flush()
			})
		},
	}
}

func newProfileShowCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [NAME|ID]",
		Short: "Show a profile (default: the active one) as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				ctx := cmd.Context()
				var (
					p   *profile.Profile
					err error
				)
				if len(args) == 1 {
					p, err = resolveProfile(ctx, a.profiles, args[0])
				} else {
					p, err = a.profiles.Active(ctx)
					if err == nil && p == nil {
						err = errors.New("no active profile; pass a profile name")
					}
				}
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(p); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
}

func newProfileCreateCmd(global *globalOptions) *cobra.Command {
	var activate bool
	cmd := &cobra.Command{
		Use:     "create NAME",
		Short:   "Create a profile",
		Example: `  formpilot profile create work --first-name Jane --last-name Doe --email jane@example.com --set employee_id=42`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				ctx := cmd.Context()
				in := profile.Input{Name: args[0]}
				if err := applyDataFlags(cmd.Flags(), &in.Data); err != nil {
					return err
				}
				in.Description, _ = cmd.Flags().GetString("description")

				p, err := a.profiles.Create(ctx, in)
				if err != nil {
					return err
				}
				if activate {
					if err := a.profiles.SetActive(ctx, p.ID); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Created profile %q", p.Name))+" "+mutedStyle.Render(p.ID))
				return nil
			})
		},
	}
	addDataFlags(cmd.Flags())
	cmd.Flags().BoolVar(&activate, "use", false, "make the new profile active")
	return cmd
}

func newProfileUpdateCmd(global *globalOptions) *cobra.Command {
	var (
		rename string
		unset  []string
	)
	cmd := &cobra.Command{
		Use:   "update NAME|ID",
		Short: "Update fields of a profile",
		Long: `Update fields of a profile. Only the flags given are changed; an
empty value clears a field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				ctx := cmd.Context()
				p, err := resolveProfile(ctx, a.profiles, args[0])
				if err != nil {
					return err
				}

				data := p.Data
				if p.Data.CustomFields != nil {
					data.CustomFields = make(map[string]string, len(p.Data.CustomFields))
					for k, v := range p.Data.CustomFields {
						data.CustomFields[k] = v
					}
				}
				if err := applyDataFlags(cmd.Flags(), &data); err != nil {
					return err
				}
				for _, key := range unset {
					delete(data.CustomFields, key)
				}

				patch := profile.Patch{Data: &data}
				if cmd.Flags().Changed("rename") {
					patch.Name = &rename
				}
				if cmd.Flags().Changed("description") {
					desc, _ := cmd.Flags().GetString("description")
					patch.Description = &desc
				}

				updated, err := a.profiles.Update(ctx, p.ID, patch)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Updated profile %q", updated.Name)))
				return nil
			})
		},
	}
	addDataFlags(cmd.Flags())
	cmd.Flags().StringVar(&rename, "rename", "", "new profile name")
	cmd.Flags().StringArrayVar(&unset, "unset", nil, "custom field to remove (repeatable)")
	return cmd
}

func newProfileDeleteCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME|ID",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				ctx := cmd.Context()
				p, err := resolveProfile(ctx, a.profiles, args[0])
				if err != nil {
					return err
				}
				if err := a.profiles.Delete(ctx, p.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Deleted profile %q", p.Name)))
				return nil
			})
		},
	}
}

func newProfileUseCmd(global *globalOptions) *cobra.Command {
	var clearActive bool
	cmd := &cobra.Command{
		Use:   "use NAME|ID",
		Short: "Set the active profile",
		Args: func(cmd *cobra.Command, args []string) error {
			if clearActive {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				ctx := cmd.Context()
				if clearActive {
					if err := a.profiles.ClearActive(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No active profile"))
					return nil
				}
				p, err := resolveProfile(ctx, a.profiles, args[0])
				if err != nil {
					return err
				}
				if err := a.profiles.SetActive(ctx, p.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Active profile: %s", p.Name)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearActive, "clear", false, "unset the active profile")
	return cmd
}

func newProfileExportCmd(global *globalOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all profiles as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", out, err)
					}
					defer f.Close()
					w = f
				}
				return a.profiles.Export(cmd.Context(), w)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func newProfileImportCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import profiles from a YAML export (- for stdin)",
		Long: `Import profiles from a YAML file written by "formpilot profile export".
Profiles whose name already exists are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(a *app) error {
				var r io.Reader = cmd.InOrStdin()
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return fmt.Errorf("failed to open %s: %w", args[0], err)
					}
					defer f.Close()
					r = f
				}
				n, err := a.profiles.Import(cmd.Context(), r)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Imported %d profile(s)", n)))
				return nil
			})
		},
	}
}
