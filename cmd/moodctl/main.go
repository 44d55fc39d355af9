package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spacesedan/moodscope/config"
	"github.com/spacesedan/moodscope/internal/aura"
	"github.com/spacesedan/moodscope/internal/cache"
	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/db"
	"github.com/spacesedan/moodscope/internal/forecast"
	"github.com/spacesedan/moodscope/internal/insights"
	"github.com/spacesedan/moodscope/internal/logging"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/service"
	"github.com/spf13/cobra"
)

var (
	days        int
	useDataset  bool
	lexiconPath string
	timeout     time.Duration
)

// newFetcher is swapped out in tests.
var newFetcher = func() service.PostFetcher {
	return clients.GetRedditClient()
}

var rootCmd = &cobra.Command{
	Use:           "moodctl",
	Short:         "Analyze Reddit users from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv(config.AppEnv())
		logging.InitLogger()
		return nil
	},
}

// trendCmd needs no ML models: VADER mood series plus the linear forecast.
var trendCmd = &cobra.Command{
	Use:   "trend <username>",
	Short: "Print the daily mood trend and 7-day forecast as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <username>",
	Short: "Print the full patient insights report as JSON",
	Long: `Fetch a user's public posts and print aura, Big-Five, risk flags,
emotion trend and session tips. With --dataset the scraped dataset is
searched first and Reddit is only used as a fallback.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var lexiconCmd = &cobra.Command{
	Use:   "lexicon [path]",
	Short: "Validate a lexicon file, or print the embedded one's summary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLexicon,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&lexiconPath, "lexicon", "", "Lexicon override file (default: LEXICON_PATH or embedded)")

	trendCmd.Flags().IntVar(&days, "days", 60, "Days of history to include")
	analyzeCmd.Flags().BoolVar(&useDataset, "dataset", false, "Look the author up in the DynamoDB dataset first")

	rootCmd.AddCommand(trendCmd, analyzeCmd, lexiconCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadLexicon() (*insights.Lexicon, error) {
	path := lexiconPath
	if path == "" {
		path = config.GetEnv("LEXICON_PATH", "")
	}
	return insights.LoadLexicon(path)
}

func runTrend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	username := args[0]
	if days <= 0 {
		days = 60
	}

	mc := cache.NewMemoryPostCache(cache.DefaultTTL, time.Minute)
	defer mc.Close()

	dashboard := service.NewDashboard(newFetcher(), mc, nil, nil, forecast.NewLinearForecaster(), nil)
	if _, err := dashboard.Fetch(ctx, username); err != nil {
		return fmt.Errorf("fetch %s: %w", username, err)
	}

	trend, err := dashboard.MoodTrend(ctx, username, days)
	if err != nil {
		return err
	}
	fc, err := dashboard.Forecast(ctx, username)
	if err != nil {
		return err
	}
	if trend == nil {
		trend = []models.DailyMoodPoint{}
	}

	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"username": username,
		"trend":    trend,
		"forecast": fc,
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	lexicon, err := loadLexicon()
	if err != nil {
		return err
	}

	hugotCfg := clients.HugotConfigFromEnv()
	hc, err := clients.NewHugotClient(hugotCfg)
	if err != nil {
		return err
	}
	defer hc.Close()

	var embedder aura.Embedder = hc
	if !hugotCfg.WithEmbedder {
		embedder = clients.GetOpenAIClient()
	}

	var store service.DatasetReader = noDataset{}
	if useDataset {
		store = db.NewDatasetStore(clients.GetDynamoDBClient(), config.GetEnv("DATASET_TABLE", db.DATASET_TABLE_NAME))
	}

	therapist := service.NewTherapist(store, newFetcher(), hc, aura.NewAnalyzer(embedder), lexicon)
	return writeJSON(cmd.OutOrStdout(), therapist.PatientInsights(ctx, args[0]))
}

func runLexicon(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		lexiconPath = args[0]
	}
	lex, err := loadLexicon()
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"valid":    true,
		"emotions": lex.Emotions,
		"traits":   len(lex.Personality.Traits),
	})
}

// noDataset makes the therapist flow go straight to a live fetch.
type noDataset struct{}

func (noDataset) AuthorPosts(context.Context, string) ([]models.DatasetPost, error) {
	return nil, nil
}

func (noDataset) AuthorSummaries(context.Context) ([]models.PatientSummary, error) {
	return nil, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
