package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	InputFile   string
	OutputDir   string
	AudioDir    string
	ExportFile  string
	PackageFile string
	DeckName    string
	Delay       time.Duration
	Language    string
	ListModels  bool
	Archive     bool

	// Server flags
	Listen string

	// OpenAI TTS flags
	TTSModel       string
	TTSVoice       string
	TTSSpeed       float64
	TTSInstruction string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		InputFile:   "input.txt",
		AudioDir:    "audio",
		ExportFile:  "output.txt",
		PackageFile: "anki-deck.apkg",
		DeckName:    "German Vocabulary",
		Delay:       time.Second,
		Language:    "de",
		Listen:      ":8081",
		TTSModel:    "gpt-4o-mini-tts",
		TTSVoice:    "alloy",
		TTSSpeed:    1.0,
	}
}
