package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	settingsPath         string
	apiKey               string
	captionPromptPath    string
	paraphrasePromptPath string
	debugMode            bool

	stockSite       string
	inputDirectory  string
	outputDirectory string
	historyLimit    int
)

var rootCmd = &cobra.Command{
	Use:   "pixelpure",
	Short: "Caption, title, keyword and rename stock photos",
	Long: `Turns a folder of stock photos into renamed files and an Adobe Stock or
Shutterstock CSV manifest, using a vision model for captions and a text model
for titles.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			SetDebugMode(true)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the input directory (Ctrl-C stops after the current image)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := mustLoadConfig(cmd)
		site, err := config.Site()
		if err != nil {
			log.Fatalf("Invalid stock site: %v", err)
		}

		a, err := newApp(context.Background(), config, nil)
		if err != nil {
			log.Fatalf("Failed to create pipeline: %v", err)
		}
		defer a.Close()

		worker := StartWorker(context.Background(), a.pipeline, RunRequest{
			InputDir:  config.Settings.InputDirectory,
			OutputDir: config.Settings.OutputDirectory,
			Site:      site,
		})

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			select {
			case <-sigs:
				log.Printf("Stopping...")
				worker.Stop()
			case <-worker.Done():
			}
		}()

		for ev := range worker.Events() {
			if ev.Type == EventProgress {
				fmt.Printf("Progress: %3d%% (%d/%d)\n", ev.Percent, ev.Processed, ev.Total)
			}
		}

		result, err := worker.Wait()
		if err != nil {
			log.Fatalf("Processing failed: %v", err)
		}
		printSummary(result)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := mustLoadConfig(cmd)

		metrics := NewMetrics()
		a, err := newApp(context.Background(), config, metrics)
		if err != nil {
			log.Fatalf("Failed to create pipeline: %v", err)
		}
		defer a.Close()

		server := NewServer(config, a.pipeline, NewHub(), a.ledger, metrics)
		srv := &http.Server{
			Addr:    config.Settings.Server.Addr,
			Handler: server.Router(),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			log.Printf("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("listen: %v", err)
			}
		}()

		<-ctx.Done()
		log.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the ledger",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := mustLoadConfig(cmd)
		if config.Settings.Ledger.Path == "" {
			log.Fatal("Run ledger disabled: set ledger.path in settings")
		}

		ledger, err := OpenLedger(config.Settings.Ledger.Path)
		if err != nil {
			log.Fatalf("Failed to open ledger: %v", err)
		}
		defer ledger.Close()

		runs, err := ledger.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %-12s %-9s %3d/%-3d %s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04"), r.Site, r.State, r.Processed, r.Total, r.ManifestPath)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to settings.yaml (default .pixelpure/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Anthropic API key")
	rootCmd.PersistentFlags().StringVar(&captionPromptPath, "caption-prompt", "", "Path to custom caption prompt file")
	rootCmd.PersistentFlags().StringVar(&paraphrasePromptPath, "paraphrase-prompt", "", "Path to custom paraphrase prompt file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	runCmd.Flags().StringVar(&stockSite, "site", "", "Stock site: adobe or shutterstock")
	runCmd.Flags().StringVar(&inputDirectory, "input", "", "Directory with images to process")
	runCmd.Flags().StringVar(&outputDirectory, "output", "", "Directory for renamed images and the manifest")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")

	rootCmd.AddCommand(runCmd, serveCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// mustLoadConfig builds overrides from the flags that were set and loads settings
func mustLoadConfig(cmd *cobra.Command) *Config {
	overrides := &ConfigOverrides{}
	if settingsPath != "" {
		overrides.SettingsPath = &settingsPath
	}
	if captionPromptPath != "" {
		overrides.CaptionPromptPath = &captionPromptPath
	}
	if paraphrasePromptPath != "" {
		overrides.ParaphrasePromptPath = &paraphrasePromptPath
	}
	if cmd.Flags().Changed("site") {
		overrides.StockSite = &stockSite
	}
	if cmd.Flags().Changed("input") {
		overrides.InputDirectory = &inputDirectory
	}
	if cmd.Flags().Changed("output") {
		overrides.OutputDirectory = &outputDirectory
	}

	config, err := NewConfig(overrides)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}

// app owns everything a run needs beyond the config
type app struct {
	collaborators *Collaborators
	pipeline      *Pipeline
	ledger        *Ledger
}

func newApp(ctx context.Context, config *Config, metrics *Metrics) (*app, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	collaborators, err := NewCollaborators(config, apiKey)
	if err != nil {
		return nil, err
	}

	a := &app{
		collaborators: collaborators,
		pipeline:      NewPipeline(config, collaborators.Captioner, collaborators.Paraphraser),
	}
	a.pipeline.SetMetrics(metrics)

	if path := config.Settings.Ledger.Path; path != "" {
		ledger, err := OpenLedger(path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.ledger = ledger
		a.pipeline.SetRecorder(ledger)
	}

	if s3cfg := config.Settings.Publish.S3; s3cfg.Bucket != "" {
		publisher, err := NewS3Publisher(ctx, s3cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("manifest publisher: %w", err)
		}
		a.pipeline.SetPublisher(publisher)
	}

	return a, nil
}

func (a *app) Close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			log.Printf("Closing ledger: %v", err)
		}
	}
	if err := a.collaborators.Close(); err != nil {
		log.Printf("Closing collaborators: %v", err)
	}
}

func printSummary(result *RunResult) {
	var skipped int
	for _, item := range result.Items {
		if item.Status == StatusSkipped {
			skipped++
		}
	}

	switch result.State {
	case StateCompleted:
		fmt.Printf("\n✓ Completed: %d renamed, %d skipped\n", result.Processed(), skipped)
		fmt.Printf("  Manifest: %s\n", result.ManifestPath)
		if result.PublishedKey != "" {
			fmt.Printf("  Published: %s\n", result.PublishedKey)
		}
	case StateStopped:
		fmt.Printf("\nStopped after %d of %d images; no manifest written. Run again to process the rest.\n",
			len(result.Items), result.Total)
	}
}
