package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/codescope/codescope-go/internal/errors"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// CredentialManager handles credential retrieval with a priority chain.
// Priority: Environment Variables → Keychain → Config File → Interactive Prompt
type CredentialManager struct {
	mode       DeploymentMode
	keyring    *KeyringManager
	configPath string
}

// Credentials holds all user credentials
type Credentials struct {
	OpenAIAPIKey string `yaml:"openai_api_key"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager() *CredentialManager {
	mode := DetectMode()
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".config", "codescope", "credentials.yaml")

	return &CredentialManager{
		mode:       mode,
		keyring:    NewKeyringManager(),
		configPath: configPath,
	}
}

// GetOpenAIAPIKey retrieves the OpenAI API key using the priority chain
func (cm *CredentialManager) GetOpenAIAPIKey() (string, error) {
	// 1. Environment variable (highest priority)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}

	// 2. Keychain
	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(); err == nil && key != "" {
			return key, nil
		}
	}

	// 3. Config file
	if creds, err := cm.loadConfigFile(); err == nil && creds.OpenAIAPIKey != "" {
		return creds.OpenAIAPIKey, nil
	}

	// 4. Interactive prompt (only in packaged mode, not in CI)
	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Println("\nOpenAI API Key not found.")
		fmt.Println("   Create one at: https://platform.openai.com/api-keys")
		fmt.Println()
		return cm.promptForAPIKey()
	}

	return "", errors.ConfigErrorf(
		"OPENAI_API_KEY not found. Set it via:\n"+
			"  1. Environment variable: export OPENAI_API_KEY=sk-...\n"+
			"  2. Run: codescope configure (to set up keychain)\n"+
			"  3. Config file: %s", cm.configPath)
}

// GetGeminiAPIKey retrieves the Gemini API key using the priority chain.
// Gemini is an optional backend; a missing key is not an error.
func (cm *CredentialManager) GetGeminiAPIKey() (string, error) {
	for _, envVar := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
	}

	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetGeminiKey(); err == nil && key != "" {
			return key, nil
		}
	}

	if creds, err := cm.loadConfigFile(); err == nil && creds.GeminiAPIKey != "" {
		return creds.GeminiAPIKey, nil
	}

	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Println("\nGemini API Key not found (optional).")
		fmt.Println("   Used as a reduced-capability inference backend")
		fmt.Println("   Create one at: https://aistudio.google.com/apikey")
		fmt.Println()
		fmt.Print("Enter Gemini API Key (or press Enter to skip): ")

		key, _ := cm.readSecurely()
		if key != "" {
			if cm.keyring.IsAvailable() {
				cm.keyring.SetGeminiKey(key)
			}
			return key, nil
		}
		return "", nil
	}

	return "", nil
}

// SaveCredentials saves credentials to keychain (preferred) or config file (fallback)
func (cm *CredentialManager) SaveCredentials(creds Credentials) error {
	if cm.keyring.IsAvailable() {
		if creds.OpenAIAPIKey != "" {
			if err := cm.keyring.SetAPIKey(creds.OpenAIAPIKey); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
					"failed to save OpenAI API key to keychain")
			}
		}
		if creds.GeminiAPIKey != "" {
			if err := cm.keyring.SetGeminiKey(creds.GeminiAPIKey); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
					"failed to save Gemini key to keychain")
			}
		}
		return nil
	}

	return cm.saveConfigFile(creds)
}

// loadConfigFile loads credentials from config file
func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

// saveConfigFile saves credentials to config file with user-only permissions
func (cm *CredentialManager) saveConfigFile(creds Credentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return err
	}

	return nil
}

// promptForAPIKey prompts the user for an OpenAI API key
func (cm *CredentialManager) promptForAPIKey() (string, error) {
	fmt.Print("Enter OpenAI API Key: ")
	key, err := cm.readSecurely()
	if err != nil {
		return "", err
	}

	if key == "" {
		return "", errors.ConfigError("OpenAI API key is required")
	}

	if !strings.HasPrefix(key, "sk-") {
		return "", errors.ConfigError("OpenAI API key should start with 'sk-'")
	}

	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SetAPIKey(key); err == nil {
			fmt.Println("Saved to keychain")
		}
	} else {
		creds := Credentials{OpenAIAPIKey: key}
		if err := cm.saveConfigFile(creds); err == nil {
			fmt.Printf("Saved to %s\n", cm.configPath)
		}
	}

	return key, nil
}

// readSecurely reads a password/token from stdin without echoing
func (cm *CredentialManager) readSecurely() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Fallback: read from stdin (piped input)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// GetMode returns the current deployment mode
func (cm *CredentialManager) GetMode() DeploymentMode {
	return cm.mode
}

// GetConfigPath returns the path to the credentials file
func (cm *CredentialManager) GetConfigPath() string {
	return cm.configPath
}

// HasCredentials checks if any inference credentials are configured
func (cm *CredentialManager) HasCredentials() bool {
	if os.Getenv("OPENAI_API_KEY") != "" || os.Getenv("GEMINI_API_KEY") != "" {
		return true
	}

	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(); err == nil && key != "" {
			return true
		}
		if key, err := cm.keyring.GetGeminiKey(); err == nil && key != "" {
			return true
		}
	}

	if creds, err := cm.loadConfigFile(); err == nil {
		if creds.OpenAIAPIKey != "" || creds.GeminiAPIKey != "" {
			return true
		}
	}

	return false
}
