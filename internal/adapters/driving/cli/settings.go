package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, the index, retrieval and chat options.

Settings are stored in ~/.rockybot/config.toml. API keys left empty are read
from OPENAI_API_KEY, GROQ_API_KEY or ANTHROPIC_API_KEY.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Change one setting",
	Long: `Sets KEY to VALUE. Lists such as chat.topics are comma-separated.
When VALUE is omitted for an API key it is read from the terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the embedding and LLM providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for ingestion and questions.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used for answers and chat.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, s := range settingsService.Values(settings) {
		group, name, _ := strings.Cut(s.Key, ".")
		if group != section {
			section = group
			cmd.Println()
			cmd.Printf("[%s]\n", group)
		}
		value := s.Value
		switch {
		case s.Secret && value != "":
			value = maskAPIKey(value)
		case value == "":
			value = "(not set)"
		}
		cmd.Printf("  %s: %s\n", name, value)
	}
	cmd.Println()

	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'rockybot settings set KEY VALUE' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if !strings.HasSuffix(key, ".api_key") {
			return fmt.Errorf("%w: missing value for %s", domain.ErrInvalidInput, key)
		}
		cmd.Printf("Enter %s: ", key)
		value = readPassword(bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Checking providers... ")
	if err := settingsService.Check(cmd.Context()); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, reader, providerPrompt{
		title:     "Select Embedding Provider",
		prefix:    "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, reader, providerPrompt{
		title:     "Select LLM Provider",
		prefix:    "llm",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
	})
}

// providerPrompt describes one provider selection flow.
type providerPrompt struct {
	title     string
	prefix    string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, p providerPrompt) error {
	cmd.Println(p.title)
	for i, provider := range p.providers {
		cmd.Printf("  %d. %s\n", i+1, provider.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(p.providers), 1)
	selected := p.providers[idx-1]

	defaultModel := p.models[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Printf("Enter API key (empty to use %s): ", selected.APIKeyEnv())
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := settingsService.Set(p.prefix+".provider", string(selected)); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", p.prefix, err)
	}
	if err := settingsService.Set(p.prefix+".model", model); err != nil {
		return fmt.Errorf("failed to configure %s model: %w", p.prefix, err)
	}
	if apiKey != "" {
		if err := settingsService.Set(p.prefix+".api_key", apiKey); err != nil {
			return fmt.Errorf("failed to configure %s API key: %w", p.prefix, err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.Check(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", p.prefix, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", p.prefix, selected.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal, otherwise it
// reads a line from reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
