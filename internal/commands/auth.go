package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/moasq/toolfactory/internal/llm"
	"github.com/moasq/toolfactory/internal/secrets"
	"github.com/moasq/toolfactory/internal/terminal"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage model provider API keys",
	Long: `Stores API keys for the anthropic and openai providers in the OS keychain,
or in a 0600 file under the config directory when no keychain is available.
ANTHROPIC_API_KEY and OPENAI_API_KEY take precedence over stored keys.`,
}

var authSetCmd = &cobra.Command{
	Use:       "set <provider>",
	Short:     "Store an API key (read from the terminal or stdin)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(llm.ProviderAnthropic), string(llm.ProviderOpenAI)},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := keyedProvider(args[0])
		if err != nil {
			return err
		}
		key, err := readSecret(fmt.Sprintf("%s API key", p))
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("no key entered")
		}
		store := secretStore()
		if err := store.Set(secrets.APIKey(string(p)), key); err != nil {
			return fmt.Errorf("failed to store key: %w", err)
		}
		terminal.Success(fmt.Sprintf("Stored %s key %s in %s", p, secrets.Mask(key), store.Backend()))
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where each provider's key comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := secretStore()
		terminal.Header("Providers")
		terminal.Detail("Active", cfg.Provider)
		for _, p := range []llm.Provider{llm.ProviderAnthropic, llm.ProviderOpenAI} {
			terminal.Detail(string(p), keySource(p, store))
		}
		terminal.Detail(string(llm.ProviderClaudeCode), "uses the claude CLI login")
		return nil
	},
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove <provider>",
	Short: "Delete a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := keyedProvider(args[0])
		if err != nil {
			return err
		}
		if err := secretStore().Delete(secrets.APIKey(string(p))); err != nil {
			return fmt.Errorf("failed to remove key: %w", err)
		}
		terminal.Success(fmt.Sprintf("Removed stored %s key", p))
		return nil
	},
}

func init() {
	authCmd.AddCommand(authSetCmd, authStatusCmd, authRemoveCmd)
}

func keyedProvider(s string) (llm.Provider, error) {
	p, err := llm.ParseProvider(s)
	if err != nil {
		return "", err
	}
	if p == llm.ProviderClaudeCode {
		return "", errors.New("claude-code uses the claude CLI login and has no API key")
	}
	return p, nil
}

func keySource(p llm.Provider, store secrets.Store) string {
	envName := "ANTHROPIC_API_KEY"
	envKey := cfg.AnthropicAPIKey
	if p == llm.ProviderOpenAI {
		envName, envKey = "OPENAI_API_KEY", cfg.OpenAIAPIKey
	}
	if envKey != "" {
		return fmt.Sprintf("%s (%s)", secrets.Mask(envKey), envName)
	}
	key, err := store.Get(secrets.APIKey(string(p)))
	switch {
	case err == nil:
		return fmt.Sprintf("%s (%s)", secrets.Mask(key), store.Backend())
	case errors.Is(err, secrets.ErrNotFound):
		return terminal.Dim + "not set" + terminal.Reset
	default:
		return terminal.Red + err.Error() + terminal.Reset
	}
}

// readSecret reads without echo from a terminal, or one line from piped
// stdin.
func readSecret(label string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "  %s: ", label)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
