package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "wortkiste" {
		t.Errorf("Expected Use to be 'wortkiste', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "German Anki Flashcard Generator") {
		t.Errorf("Expected Short description to contain 'German Anki Flashcard Generator'")
	}

	// Test that flags are set up
	persistentFlags := map[string]bool{
		"config": true, "output": true, "audio-dir": true, "deck-name": true,
		"delay": true, "language": true, "tts-model": true, "tts-voice": true,
		"tts-speed": true, "tts-instruction": true,
	}

	flagTests := []string{
		"config",
		"output",
		"audio-dir",
		"deck-name",
		"delay",
		"language",
		"input",
		"export-file",
		"package-file",
		"list-models",
		"archive",
		"tts-model",
		"tts-voice",
		"tts-speed",
		"tts-instruction",
	}

	for _, name := range flagTests {
		t.Run("flag_"+name, func(t *testing.T) {
			var flag *pflag.Flag
			if persistentFlags[name] {
				flag = cmd.PersistentFlags().Lookup(name)
			} else {
				flag = cmd.Flags().Lookup(name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", name)
			}
		})
	}
}

func TestCreateServeCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateServeCommand(flags)

	if cmd.Use != "serve" {
		t.Errorf("Expected Use to be 'serve', got %s", cmd.Use)
	}

	listenFlag := cmd.Flags().Lookup("listen")
	if listenFlag == nil {
		t.Fatal("listen flag not found")
	}
	if listenFlag.DefValue != ":8081" {
		t.Errorf("Expected default listen address to be :8081, got %s", listenFlag.DefValue)
	}
}

func TestSetupFlags(t *testing.T) {
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	inputFlag := cmd.Flags().Lookup("input")
	if inputFlag == nil {
		t.Fatal("input flag not found")
	}
	if inputFlag.DefValue != "input.txt" {
		t.Errorf("Expected default input file to be input.txt, got %s", inputFlag.DefValue)
	}

	audioDirFlag := cmd.PersistentFlags().Lookup("audio-dir")
	if audioDirFlag == nil {
		t.Fatal("audio-dir flag not found")
	}
	if audioDirFlag.DefValue != "audio" {
		t.Errorf("Expected default audio dir to be audio, got %s", audioDirFlag.DefValue)
	}

	deckNameFlag := cmd.PersistentFlags().Lookup("deck-name")
	if deckNameFlag == nil {
		t.Fatal("deck-name flag not found")
	}
	if deckNameFlag.DefValue != "German Vocabulary" {
		t.Errorf("Expected default deck name to be 'German Vocabulary', got %s", deckNameFlag.DefValue)
	}
}

func TestInitConfig(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	tests := []struct {
		name      string
		cfgFile   string
		setupFunc func(t *testing.T) string
	}{
		{
			name:    "with config file",
			cfgFile: "test-config.yaml",
			setupFunc: func(t *testing.T) string {
				tmpDir := t.TempDir()
				cfgPath := filepath.Join(tmpDir, "test-config.yaml")
				content := `openai:
  api_key: test-key
output:
  directory: /test/output`
				err := os.WriteFile(cfgPath, []byte(content), 0644)
				if err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
				return cfgPath
			},
		},
		{
			name:    "without config file",
			cfgFile: "",
			setupFunc: func(t *testing.T) string {
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper for each test
			viper.Reset()

			cfgPath := tt.setupFunc(t)
			if tt.cfgFile != "" && cfgPath != "" {
				tt.cfgFile = cfgPath
			}

			InitConfig(tt.cfgFile)

			// Test environment variable prefix
			os.Setenv("WORTKISTE_TEST_VAR", "test-value")
			defer os.Unsetenv("WORTKISTE_TEST_VAR")

			if viper.GetString("test_var") != "test-value" {
				t.Error("Environment variable not properly loaded")
			}
		})
	}
}

func TestGetOpenAIKey(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{
			name:      "from environment",
			envKey:    "env-test-key",
			configKey: "config-test-key",
			expected:  "env-test-key",
		},
		{
			name:      "from config when no env",
			envKey:    "",
			configKey: "config-test-key",
			expected:  "config-test-key",
		},
		{
			name:      "empty when neither set",
			envKey:    "",
			configKey: "",
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper
			viper.Reset()

			// Set up environment
			if tt.envKey != "" {
				os.Setenv("OPENAI_API_KEY", tt.envKey)
				defer os.Unsetenv("OPENAI_API_KEY")
			} else {
				os.Unsetenv("OPENAI_API_KEY")
			}

			// Set up config
			if tt.configKey != "" {
				viper.Set("openai.api_key", tt.configKey)
			}

			got := GetOpenAIKey()
			if got != tt.expected {
				t.Errorf("GetOpenAIKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetForvoKey(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{
			name:      "from environment",
			envKey:    "forvo-env-key",
			configKey: "forvo-config-key",
			expected:  "forvo-env-key",
		},
		{
			name:      "from config when no env",
			envKey:    "",
			configKey: "forvo-config-key",
			expected:  "forvo-config-key",
		},
		{
			name:      "empty when neither set",
			envKey:    "",
			configKey: "",
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()

			if tt.envKey != "" {
				os.Setenv("FORVO_API_KEY", tt.envKey)
				defer os.Unsetenv("FORVO_API_KEY")
			} else {
				os.Unsetenv("FORVO_API_KEY")
			}

			if tt.configKey != "" {
				viper.Set("forvo.api_key", tt.configKey)
			}

			got := GetForvoKey()
			if got != tt.expected {
				t.Errorf("GetForvoKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBindFlagsToViper(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	// Reset viper
	viper.Reset()

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	// Set some flag values
	cmd.PersistentFlags().Set("output", "/test/output")
	cmd.PersistentFlags().Set("language", "de")
	cmd.PersistentFlags().Set("tts-model", "tts-1-hd")

	bindFlagsToViper(cmd)

	// Test that values are bound
	if viper.GetString("output.directory") != "/test/output" {
		t.Errorf("Expected output.directory to be /test/output, got %s", viper.GetString("output.directory"))
	}

	if viper.GetString("audio.language") != "de" {
		t.Errorf("Expected audio.language to be de, got %s", viper.GetString("audio.language"))
	}

	if viper.GetString("audio.tts_model") != "tts-1-hd" {
		t.Errorf("Expected audio.tts_model to be tts-1-hd, got %s", viper.GetString("audio.tts_model"))
	}
}
