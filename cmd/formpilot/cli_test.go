package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/pkg/config"
	"github.com/entrhq/formpilot/pkg/kv"
	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/entrhq/formpilot/pkg/logging"
)

// newTestEnv isolates HOME and the API key variables and returns a data dir.
func newTestEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range apiKeyEnvVars {
		t.Setenv(name, "")
	}
	return t.TempDir()
}

func execute(t *testing.T, dataDir string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const contactForm = `<html><head><title>Contact</title></head><body>
<form>
  <input name="firstName">
  <input name="email" type="email">
</form>
</body></html>`

func TestProfileLifecycle(t *testing.T) {
	dir := newTestEnv(t)

	out, _, err := execute(t, dir, "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No profiles")

	out, _, err = execute(t, dir, "profile", "create", "Work",
		"--first-name", "Jane", "--email", "jane@example.com", "--set", "employee_id=42", "--use")
	require.NoError(t, err)
	assert.Contains(t, out, `Created profile "Work"`)

	_, _, err = execute(t, dir, "profile", "create", "work")
	assert.Error(t, err, "names are unique case-insensitively")

	out, _, err = execute(t, dir, "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "*")
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "jane@example.com")

	_, _, err = execute(t, dir, "profile", "update", "work", "--last-name", "Doe", "--unset", "employee_id", "--rename", "Office")
	require.NoError(t, err)

	out, _, err = execute(t, dir, "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Office")
	assert.Contains(t, out, "lastName: Doe")
	assert.Contains(t, out, "firstName: Jane")
	assert.NotContains(t, out, "employee_id")

	_, _, err = execute(t, dir, "profile", "use", "--clear")
	require.NoError(t, err)
	_, _, err = execute(t, dir, "profile", "show")
	assert.ErrorContains(t, err, "no active profile")

	_, _, err = execute(t, dir, "profile", "delete", "office")
	require.NoError(t, err)
	_, _, err = execute(t, dir, "profile", "show", "office")
	assert.Error(t, err)
}

func TestProfileCreate_InvalidSet(t *testing.T) {
	dir := newTestEnv(t)
	_, _, err := execute(t, dir, "profile", "create", "x", "--set", "novalue")
	assert.ErrorContains(t, err, "want key=value")
}

func TestProfileExportImport(t *testing.T) {
	src := newTestEnv(t)
	_, _, err := execute(t, src, "profile", "create", "Home", "--city", "Toronto")
	require.NoError(t, err)
	_, _, err = execute(t, src, "profile", "create", "Work", "--company", "Acme")
	require.NoError(t, err)

	exported := filepath.Join(t.TempDir(), "profiles.yaml")
	_, _, err = execute(t, src, "profile", "export", "--out", exported)
	require.NoError(t, err)

	dst := t.TempDir()
	out, _, err := execute(t, dst, "profile", "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 profile(s)")

	out, _, err = execute(t, dst, "profile", "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 profile(s)", "existing names are skipped")

	out, _, err = execute(t, dst, "profile", "show", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "city: Toronto")
}

func TestFill_FileFromActiveProfile(t *testing.T) {
	dir := newTestEnv(t)
	_, _, err := execute(t, dir, "profile", "create", "Me", "--first-name", "Jane", "--email", "jane@example.com", "--use")
	require.NoError(t, err)

	page := writeFile(t, t.TempDir(), "contact.html", contactForm)
	out, stderr, err := execute(t, dir, "fill", "--file", page, "--no-ai-fallback")
	require.NoError(t, err)
	assert.Contains(t, out, `value="Jane"`)
	assert.Contains(t, out, `value="jane@example.com"`)
	assert.Contains(t, stderr, "Filled 2 of 2 fields")
	assert.Contains(t, stderr, "source: profile")
}

func TestFill_NamedProfileToOutFile(t *testing.T) {
	dir := newTestEnv(t)
	_, _, err := execute(t, dir, "profile", "create", "Other", "--email", "other@example.com")
	require.NoError(t, err)

	tmp := t.TempDir()
	page := writeFile(t, tmp, "contact.html", contactForm)
	outPath := filepath.Join(tmp, "filled.html")

	stdout, stderr, err := execute(t, dir, "fill", "--file", page, "--profile", "other", "--no-ai-fallback", "--out", outPath, "--json")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `"success": true`)
	assert.Contains(t, stderr, `"email"`)

	filled, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(filled), `value="other@example.com"`)

	_, _, err = execute(t, dir, "fill", "--file", page, "--profile", "missing")
	assert.Error(t, err)
}

func TestFill_Failures(t *testing.T) {
	dir := newTestEnv(t)
	tmp := t.TempDir()

	noForms := writeFile(t, tmp, "plain.html", "<html><body><p>Hello</p></body></html>")
	_, stderr, err := execute(t, dir, "fill", "--file", noForms)
	assert.True(t, errors.Is(err, errFillFailed))
	assert.Contains(t, stderr, "NoFormsDetected")

	form := writeFile(t, tmp, "contact.html", contactForm)
	_, stderr, err = execute(t, dir, "fill", "--file", form, "--no-profile")
	assert.True(t, errors.Is(err, errFillFailed))
	assert.Contains(t, stderr, "ConfigurationError", "no API key is configured")

	_, stderr, err = execute(t, dir, "fill", "--file", form, "--no-ai-fallback")
	assert.True(t, errors.Is(err, errFillFailed))
	assert.Contains(t, stderr, "NoProfileData")

	_, _, err = execute(t, dir, "fill")
	assert.Error(t, err, "one of --file or --url is required")

	_, _, err = execute(t, dir, "fill", "--file", filepath.Join(tmp, "missing.html"))
	assert.ErrorContains(t, err, "failed to open")
}

func TestFill_NoAIFallbackOverridesConfig(t *testing.T) {
	dir := newTestEnv(t)

	cfg, err := config.Load(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	require.NoError(t, cfg.Autofill().SetData(map[string]interface{}{"use_profile_data": false}))
	require.NoError(t, cfg.SaveAll())

	form := writeFile(t, t.TempDir(), "contact.html", contactForm)
	_, stderr, err := execute(t, dir, "fill", "--file", form, "--no-ai-fallback")
	assert.True(t, errors.Is(err, errFillFailed))
	assert.Contains(t, stderr, "NoProfileData")
	assert.NotContains(t, stderr, "ConfigurationError")
}

func TestFillOptions_Resolve(t *testing.T) {
	defaults := config.NewAutofillSection().Snapshot()
	aiOnly := defaults
	aiOnly.UseProfileData = false

	tests := []struct {
		name         string
		settings     config.AutofillSettings
		opts         fillOptions
		wantProfile  bool
		wantFallback bool
	}{
		{"defaults", defaults, fillOptions{}, true, true},
		{"no profile", defaults, fillOptions{noProfile: true}, false, true},
		{"no fallback", defaults, fillOptions{noAIFallback: true}, true, false},
		{"no fallback wins over config", aiOnly, fillOptions{noAIFallback: true}, true, false},
		{"config without profile", aiOnly, fillOptions{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.resolve(tt.settings)
			assert.Equal(t, tt.wantProfile, got.UseProfileData)
			require.NotNil(t, got.FallbackToAI)
			assert.Equal(t, tt.wantFallback, *got.FallbackToAI)
		})
	}
}

func TestFill_URLRejectedBySitePolicy(t *testing.T) {
	dir := newTestEnv(t)

	cfg, err := config.Load(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	require.NoError(t, cfg.Sites().Deny("**.bank.com"))
	require.NoError(t, cfg.SaveAll())

	_, _, err = execute(t, dir, "fill", "--url", "https://login.my.bank.com/")
	assert.ErrorContains(t, err, "site not allowed")
}

func TestCredentials(t *testing.T) {
	dir := newTestEnv(t)

	out, _, err := execute(t, dir, "credentials", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, "gemini")

	t.Setenv("OPENAI_API_KEY", "sk-env-1234")
	out, _, err = execute(t, dir, "credentials", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "$OPENAI_API_KEY")
	assert.Contains(t, out, "1234")
	assert.NotContains(t, out, "sk-env")

	out, _, err = execute(t, dir, "credentials", "set", "stored-key-9876")
	require.NoError(t, err)
	assert.Contains(t, out, "API key saved")
	assert.NotContains(t, out, "stored-key")

	out, _, err = execute(t, dir, "credentials", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "stored")
	assert.Contains(t, out, "9876")

	_, _, err = execute(t, dir, "credentials", "clear")
	require.NoError(t, err)
	out, _, err = execute(t, dir, "credentials", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "$OPENAI_API_KEY")

	_, _, err = execute(t, dir, "credentials", "set", "   ")
	assert.Error(t, err)
}

func TestCredentialStore_Precedence(t *testing.T) {
	newTestEnv(t)
	ctx := context.Background()
	a := &app{store: kv.NewMemoryStore(), logger: logging.Discard("test")}

	s, err := a.credentialStore(ctx)
	require.NoError(t, err)
	creds, err := llm.LoadCredentials(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, creds.APIKey)

	t.Setenv("GEMINI_API_KEY", "from-gemini-env")
	t.Setenv("FORMPILOT_API_KEY", "from-formpilot-env")
	s, err = a.credentialStore(ctx)
	require.NoError(t, err)
	creds, err = llm.LoadCredentials(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "from-formpilot-env", creds.APIKey)

	stored, err := llm.LoadCredentials(ctx, a.store)
	require.NoError(t, err)
	assert.Empty(t, stored.APIKey, "environment keys are never persisted")

	require.NoError(t, llm.SaveCredentials(ctx, a.store, "stored"))
	s, err = a.credentialStore(ctx)
	require.NoError(t, err)
	creds, err = llm.LoadCredentials(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "stored", creds.APIKey)
}

func TestProviderFactory(t *testing.T) {
	section := config.NewLLMSection()
	f, err := providerFactory(section)
	require.NoError(t, err)
	assert.NotNil(t, f)

	section.SetProvider("openai")
	section.SetModel("gpt-4o-mini")
	section.SetBaseURL("http://localhost:8080/v1")
	f, err = providerFactory(section)
	require.NoError(t, err)
	client, err := f(context.Background(), "key")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", client.Model())

	section.SetProvider("claude")
	_, err = providerFactory(section)
	assert.ErrorContains(t, err, "unknown LLM provider")
}
