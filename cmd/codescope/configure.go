package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/codescope/codescope-go/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactive setup wizard (with OS keychain support)",
	Long: `Walks through CodeScope configuration step-by-step with secure
credential storage.

This will configure:
1. OpenAI API key (stored in the OS keychain by default)
2. Gemini API key (optional reduced-capability backend)
3. Inference model selection
4. Backend endpoints (Neo4j, Postgres, Redis)

Keys entered here are never echoed to the terminal and never written to
the config file when a keychain is available.`,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 CodeScope Configuration Wizard")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".codescope", "config.yaml")
	loadedCfg, err := config.Load(configPath)
	if err != nil {
		loadedCfg = config.Default()
	}

	km := config.NewKeyringManager()
	keychainAvailable := km.IsAvailable()
	if !keychainAvailable {
		fmt.Println("⚠️  OS keychain not available (headless system or Linux without libsecret)")
		fmt.Println("   API keys will be stored in the credentials file instead.")
		fmt.Println()
	}

	// Step 1: OpenAI API key
	fmt.Println("Step 1/4: OpenAI API Key")
	fmt.Println()

	sourceInfo := km.GetAPIKeySource(loadedCfg)
	keepExisting := false
	if sourceInfo.Source != "none" {
		fmt.Printf("Current: %s\n", config.MaskAPIKey(currentOpenAIKey(km, loadedCfg)))
		fmt.Printf("Source: %s\n", sourceInfo.Recommended)
		fmt.Print("Keep existing key? (Y/n): ")
		keepExisting = confirmDefault(reader, true)
	} else {
		fmt.Println("CodeScope uses OpenAI for embeddings and completions.")
		fmt.Println("Get a key at: https://platform.openai.com/api-keys")
		fmt.Println("Without one, the deterministic mock and fallback strategies answer offline.")
		fmt.Println()
	}

	if !keepExisting {
		fmt.Print("Enter OpenAI API key (starts with sk-, Enter to skip): ")
		apiKey, rerr := readSecret(reader)
		if rerr != nil {
			return rerr
		}
		switch {
		case apiKey == "":
			fmt.Println("⏭️  Skipped")
		case !strings.HasPrefix(apiKey, "sk-"):
			fmt.Println("⚠️  Invalid key format (should start with sk-); not saved")
		default:
			if saveErr := storeKey(km, keychainAvailable, config.Credentials{OpenAIAPIKey: apiKey}); saveErr != nil {
				return saveErr
			}
			fmt.Println("✅ OpenAI API key saved")
			if keychainAvailable {
				fmt.Printf("   📍 %s\n", keychainLocation())
			}
		}
	}
	fmt.Println()

	// Step 2: Gemini API key
	fmt.Println("Step 2/4: Gemini API Key (Optional)")
	fmt.Println()
	fmt.Println("Gemini serves as a reduced-capability inference backend.")
	fmt.Println("Get a key at: https://aistudio.google.com/apikey")
	fmt.Print("Enter Gemini API key (Enter to skip): ")
	geminiKey, rerr := readSecret(reader)
	if rerr != nil {
		return rerr
	}
	if geminiKey != "" {
		if saveErr := storeKey(km, keychainAvailable, config.Credentials{GeminiAPIKey: geminiKey}); saveErr != nil {
			return saveErr
		}
		fmt.Println("✅ Gemini API key saved")
	} else {
		fmt.Println("⏭️  Skipped")
	}
	fmt.Println()

	// Step 3: Model selection
	fmt.Println("Step 3/4: Inference Model")
	fmt.Println()
	fmt.Println("Available models:")
	fmt.Println("  1. gpt-4o-mini (recommended, fast)")
	fmt.Println("  2. gpt-4o (slower, higher quality)")
	fmt.Printf("Current: %s\n", loadedCfg.Inference.OpenAIModel)
	fmt.Print("Select model (1-2) or press Enter to keep current: ")

	switch readLine(reader) {
	case "1":
		loadedCfg.Inference.OpenAIModel = "gpt-4o-mini"
		fmt.Println("✅ Using gpt-4o-mini")
	case "2":
		loadedCfg.Inference.OpenAIModel = "gpt-4o"
		fmt.Println("✅ Using gpt-4o")
	default:
		fmt.Printf("✅ Keeping %s\n", loadedCfg.Inference.OpenAIModel)
	}
	fmt.Println()

	// Step 4: Backend endpoints
	fmt.Println("Step 4/4: Backend Endpoints")
	fmt.Println()
	fmt.Printf("Graph (Neo4j):      %s\n", loadedCfg.Graph.URI)
	if loadedCfg.Vector.PostgresDSN != "" {
		fmt.Printf("Vector (Postgres):  %s\n", loadedCfg.Vector.PostgresDSN)
	} else {
		fmt.Println("Vector (Postgres):  not set (in-memory store)")
	}
	fmt.Printf("Cache (Redis):      %s\n", loadedCfg.Cache.Addr)
	fmt.Print("Change endpoints? (y/N): ")

	if confirmDefault(reader, false) {
		fmt.Printf("Neo4j URI [%s]: ", loadedCfg.Graph.URI)
		if v := readLine(reader); v != "" {
			loadedCfg.Graph.URI = v
		}
		fmt.Print("Postgres DSN (Enter to keep): ")
		if v := readLine(reader); v != "" {
			loadedCfg.Vector.PostgresDSN = v
		}
		fmt.Printf("Redis address [%s]: ", loadedCfg.Cache.Addr)
		if v := readLine(reader); v != "" {
			loadedCfg.Cache.Addr = v
		}
		fmt.Println("✅ Endpoints updated")
	} else {
		fmt.Println("✅ Keeping current endpoints")
	}
	fmt.Println()

	fmt.Printf("Save configuration to %s? (Y/n): ", configPath)
	if !confirmDefault(reader, true) {
		fmt.Println("⏭️  Configuration not saved")
		return nil
	}

	if err := loadedCfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println("✅ Configuration saved!")
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("🎯 Next steps:")
	fmt.Println()
	fmt.Println("1. Index a project:")
	fmt.Println("   cd /path/to/your/project")
	fmt.Println("   codescope index")
	fmt.Println()
	fmt.Println("2. Explore it:")
	fmt.Println("   codescope search \"parse config\"")
	fmt.Println("   codescope overview")
	fmt.Println()
	fmt.Println("3. Or serve MCP clients:")
	fmt.Println("   codescope serve")

	return nil
}

// currentOpenAIKey resolves the key the wizard would currently use, for
// masked display only.
func currentOpenAIKey(km *config.KeyringManager, cfg *config.Config) string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	if key, err := km.GetAPIKey(); err == nil && key != "" {
		return key
	}
	return cfg.Inference.OpenAIKey
}

// storeKey routes credentials to the keychain when available, otherwise
// to the user-only credentials file.
func storeKey(km *config.KeyringManager, keychainAvailable bool, creds config.Credentials) error {
	if keychainAvailable {
		if creds.OpenAIAPIKey != "" {
			return km.SaveAPIKey(creds.OpenAIAPIKey)
		}
		return km.SetGeminiKey(creds.GeminiAPIKey)
	}
	return config.NewCredentialManager().SaveCredentials(creds)
}

// readSecret reads a key without echoing when stdin is a terminal and
// falls back to a plain line read for piped input.
func readSecret(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return readLine(reader), nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// confirmDefault interprets an empty answer as the given default.
func confirmDefault(reader *bufio.Reader, def bool) bool {
	switch strings.ToLower(readLine(reader)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

func keychainLocation() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain Access.app → 'CodeScope'"
	case "windows":
		return "Windows Credential Manager → 'CodeScope'"
	case "linux":
		return "Linux Secret Service (libsecret)"
	default:
		return "OS keychain"
	}
}
