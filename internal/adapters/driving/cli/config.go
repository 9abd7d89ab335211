package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

var configAnnotations = map[string]string{settingsOnly: "true"}

var errEmptyValue = errors.New("value must not be empty")

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change graphvec settings stored in config.toml.

Settings use dot-notation keys, e.g. embedding.provider or
vector_index.name. Run 'graphvec config show' for current values.

Any key can be overridden from the environment by upper-casing it,
replacing dots with underscores and prefixing GRAPHVEC_, for example
GRAPHVEC_EMBEDDING_API_KEY. Overrides are never written to the file.`,
	Annotations: configAnnotations,
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: configAnnotations,
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting",
	Long: `Change a single setting.

When the value is omitted for an api_key setting it is read from the
terminal without echo.

Examples:
  graphvec config set embedding.provider workersai
  graphvec config set embedding.account_id 0123abcd
  graphvec config set embedding.api_key
  graphvec config set vector_index.provider qdrant
  graphvec config set vector_index.address localhost:6334
  graphvec config set content.provider filesystem
  graphvec config set content.dir ~/graphs`,
	Args:        cobra.RangeArgs(1, 2),
	Annotations: configAnnotations,
	RunE:        runConfigSet,
}

var configValidateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Check settings and embedding provider connectivity",
	Annotations: configAnnotations,
	RunE:        runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	st := stylesFor(cmd.OutOrStdout())
	cmd.Println(st.title.Render("Current Settings"))
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	cmd.Println("[Embedding]")
	if settings.Embedding.Provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	}
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider == domain.EmbeddingProviderWorkersAI {
		cmd.Printf("  Account ID: %s\n", orNotSet(settings.Embedding.AccountID))
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskedOrNotSet(settings.Embedding.APIKey))
	}
	cmd.Printf("  Timeout: %s\n", settings.Embedding.Timeout)
	if settings.Embedding.CacheEnabled {
		cmd.Printf("  Cache: %s\n", orDefault(settings.Embedding.CacheDir, "in-memory"))
	}
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	vi := settings.EffectiveVectorIndex()
	cmd.Println("[Vector Index]")
	cmd.Printf("  Provider: %s\n", vi.Provider)
	cmd.Printf("  Name: %s\n", vi.Name)
	cmd.Printf("  Dimensions: %d\n", vi.Dimensions)
	switch vi.Provider {
	case domain.VectorIndexQdrant:
		cmd.Printf("  Address: %s\n", orNotSet(vi.Address))
	case domain.VectorIndexVectorize:
		cmd.Printf("  Account ID: %s\n", orNotSet(vi.AccountID))
		cmd.Printf("  API Key: %s\n", maskedOrNotSet(vi.APIKey))
	case domain.VectorIndexMemory:
		cmd.Println(st.muted.Render("  Vectors are searched in memory and saved under the data dir."))
	}
	cmd.Printf("  Status: %s\n", configuredLabel(vi.IsConfigured()))
	cmd.Println()

	cmd.Println("[Content]")
	cmd.Printf("  Provider: %s\n", settings.Content.Provider)
	switch settings.Content.Provider {
	case domain.ContentProviderFilesystem:
		cmd.Printf("  Directory: %s\n", orNotSet(settings.Content.Dir))
	default:
		cmd.Printf("  Base URL: %s\n", settings.Content.BaseURL)
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data dir: %s\n", orDefault(settings.Storage.DataDir, "~/.graphvec/data"))
	cmd.Println()

	cmd.Println("[Reindex]")
	cmd.Printf("  Rate: %.1f/s (burst %d)\n", settings.Reindex.RequestsPerSecond, settings.Reindex.Burst)
	cmd.Printf("  Sample size: %d\n", settings.Reindex.SampleSize)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Default limit: %d\n", settings.Search.DefaultLimit)
	cmd.Printf("  Keyword score: %.2f\n", settings.Search.KeywordScore)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(st.warning.Render(fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'graphvec config set' to fix configuration issues.")
	} else {
		cmd.Println(st.success.Render("Configuration is valid."))
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case strings.HasSuffix(key, "api_key"):
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword()
		cmd.Println()
		if value == "" {
			return errEmptyValue
		}
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if strings.HasSuffix(key, "api_key") {
		shown = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, shown)

	if strings.HasPrefix(key, "embedding.") {
		settings, err := settingsService.Get()
		if err == nil && settings.Embedding.IsConfigured() {
			cmd.Print("Validating embedding provider... ")
			if err := settingsService.ValidateEmbeddingConfig(); err != nil {
				cmd.Printf("FAILED: %v\n", err)
				return nil
			}
			cmd.Println("OK")
		}
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.Embedding.IsConfigured() {
		cmd.Println("No embedding provider configured; only keyword search is available.")
		return nil
	}

	cmd.Print("Validating embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

// Helper functions.

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orNotSet(s string) string {
	return orDefault(s, "(not set)")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func maskedOrNotSet(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
