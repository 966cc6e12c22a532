package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/fkarsten/wortkiste/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wortkiste",
		Short: "German Anki Flashcard Generator",
		Long: `wortkiste generates Anki flashcard materials from German words,
expressions and sentences.

Each input line is classified, translated and explained via OpenAI,
paired with a pronunciation recording (Forvo, with OpenAI TTS as
fallback), and written out as an Anki package plus a semicolon-separated
import file.

Examples:
  wortkiste                       # Process input.txt in the current directory
  wortkiste -i words.txt          # Process a different input file
  wortkiste serve                 # Run the HTTP card generation service`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

// CreateServeCommand creates the serve subcommand
func CreateServeCommand(flags *Flags) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP card generation service",
		Long: `serve starts an HTTP server that accepts lists of German terms,
streams per-term progress while processing them, and serves the
resulting Anki package and audio files for download.`,
		Args: cobra.NoArgs,
	}

	serveCmd.Flags().StringVarP(&flags.Listen, "listen", "l", flags.Listen, "Listen address for the HTTP server")

	return serveCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.wortkiste.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.OutputDir, "output", "o", flags.OutputDir, "Output directory (default is the current directory)")
	cmd.PersistentFlags().StringVar(&flags.AudioDir, "audio-dir", flags.AudioDir, "Directory for pronunciation audio files")
	cmd.PersistentFlags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "Deck name for APKG export")
	cmd.PersistentFlags().DurationVar(&flags.Delay, "delay", flags.Delay, "Pause between terms to respect API rate limits")
	cmd.PersistentFlags().StringVar(&flags.Language, "language", flags.Language, "Forvo pronunciation language code")

	// Local flags
	cmd.Flags().StringVarP(&flags.InputFile, "input", "i", flags.InputFile, "Input file with one term per line")
	cmd.Flags().StringVar(&flags.ExportFile, "export-file", flags.ExportFile, "Semicolon-separated Anki import file")
	cmd.Flags().StringVar(&flags.PackageFile, "package-file", flags.PackageFile, "Anki package (.apkg) output file")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Archive generated outputs into a timestamped directory")

	// OpenAI TTS flags
	cmd.PersistentFlags().StringVar(&flags.TTSModel, "tts-model", flags.TTSModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.PersistentFlags().StringVar(&flags.TTSVoice, "tts-voice", flags.TTSVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	cmd.PersistentFlags().Float64Var(&flags.TTSSpeed, "tts-speed", flags.TTSSpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	cmd.PersistentFlags().StringVar(&flags.TTSInstruction, "tts-instruction", "", "Voice instructions for gpt-4o-mini-tts model (e.g., 'speak slowly and clearly')")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("output.directory", cmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("output.audio_dir", cmd.PersistentFlags().Lookup("audio-dir"))
	viper.BindPFlag("output.deck_name", cmd.PersistentFlags().Lookup("deck-name"))
	viper.BindPFlag("audio.language", cmd.PersistentFlags().Lookup("language"))
	viper.BindPFlag("audio.tts_model", cmd.PersistentFlags().Lookup("tts-model"))
	viper.BindPFlag("audio.tts_voice", cmd.PersistentFlags().Lookup("tts-voice"))
	viper.BindPFlag("audio.tts_speed", cmd.PersistentFlags().Lookup("tts-speed"))
	viper.BindPFlag("audio.tts_instruction", cmd.PersistentFlags().Lookup("tts-instruction"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".wortkiste" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wortkiste")
	}

	// Environment variables
	viper.SetEnvPrefix("WORTKISTE")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.api_key")
}

// GetForvoKey retrieves the Forvo API key from environment or config.
// An empty result is fine: Forvo lookups are skipped without a key.
func GetForvoKey() string {
	if key := os.Getenv("FORVO_API_KEY"); key != "" {
		return key
	}

	return viper.GetString("forvo.api_key")
}
