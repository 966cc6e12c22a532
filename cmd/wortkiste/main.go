package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"codeberg.org/fkarsten/wortkiste/internal/archive"
	"codeberg.org/fkarsten/wortkiste/internal/cli"
	"codeberg.org/fkarsten/wortkiste/internal/input"
	"codeberg.org/fkarsten/wortkiste/internal/models"
	"codeberg.org/fkarsten/wortkiste/internal/processor"
	"codeberg.org/fkarsten/wortkiste/internal/server"
)

func main() {
	// API keys may live in a local .env file
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	flags := cli.NewFlags()

	rootCmd := cli.CreateRootCommand(flags)
	serveCmd := cli.CreateServeCommand(flags)
	rootCmd.AddCommand(serveCmd)

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runBatch(flags, log)
	}
	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(flags, log)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBatch(flags *cli.Flags, log *logrus.Logger) error {
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey())
		return lister.ListAvailableModels()
	}

	outputDir := flags.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	exportPath := filepath.Join(outputDir, flags.ExportFile)
	packagePath := filepath.Join(outputDir, flags.PackageFile)

	proc, err := processor.New(flags, log)
	if err != nil {
		return err
	}

	if flags.Archive {
		archivePath, err := archive.ArchiveOutputs(outputDir, proc.AudioDir(), exportPath, packagePath)
		if err != nil {
			return fmt.Errorf("failed to archive outputs: %w", err)
		}
		fmt.Printf("Outputs archived to: %s\n", archivePath)
		return nil
	}

	terms, err := input.ReadInputFile(flags.InputFile)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		return fmt.Errorf("no terms found in %s", flags.InputFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cards, err := proc.Generate(ctx, terms, func(index, total int, term string) {
		fmt.Printf("Processing %d/%d: %s\n", index, total, term)
	})
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return fmt.Errorf("no cards could be generated")
	}

	if err := proc.WriteOutputs(cards, processor.Outputs{
		ExportPath:  exportPath,
		PackagePath: packagePath,
		DeckName:    flags.DeckName,
		AudioDir:    proc.AudioDir(),
	}); err != nil {
		return err
	}

	fmt.Printf("\nDone! Generated %d of %d cards.\n", len(cards), len(terms))
	fmt.Printf("  Anki import file: %s\n", exportPath)
	fmt.Printf("  Anki package:     %s\n", packagePath)
	fmt.Printf("  Audio files:      %s\n", proc.AudioDir())
	return nil
}

func runServer(flags *cli.Flags, log *logrus.Logger) error {
	proc, err := processor.New(flags, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(proc, flags, log)
	return srv.ListenAndServe(ctx, flags.Listen)
}
