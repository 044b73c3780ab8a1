package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/biokg/kgbench/internal/artifacts"
	"github.com/biokg/kgbench/internal/config"
	"github.com/biokg/kgbench/internal/eval"
	"github.com/biokg/kgbench/internal/graph"
	"github.com/biokg/kgbench/internal/llm"
	"github.com/biokg/kgbench/internal/loader"
	"github.com/biokg/kgbench/internal/logging"
	"github.com/biokg/kgbench/internal/metrics"
	"github.com/biokg/kgbench/internal/pubmed"
	"github.com/biokg/kgbench/internal/qa"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "kgbench",
		Short:         "Biomedical KG-RAG benchmark pipeline",
		Long:          `Generates and scores a biomedical QA benchmark from a Neo4j knowledge graph, PubMed literature, and a language model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newLoadGraphCmd(),
		newGenerateCmd(),
		newEvaluateCmd(),
		newAgreementCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*graph.Store, error) {
	store, err := graph.Open(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	return store, nil
}

func newLoadGraphCmd() *cobra.Command {
	var csvPath string
	var schemaPath string
	var force bool
	var batchSize int

	cmd := &cobra.Command{
		Use:   "load-graph",
		Short: "Load a graph-export CSV into Neo4j and extract its schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)
			if batchSize > 0 {
				store.SetBatchSize(batchSize)
			}

			collector := metrics.NewCollector()
			stats, err := loader.New(store, logger, collector).Run(ctx, csvPath, schemaPath, force)
			if err != nil {
				return fmt.Errorf("load failed: %w", err)
			}

			if cfg.MetricsEnabled {
				if err := collector.Write(cfg.MetricsPath); err != nil {
					logger.Warn("failed to write metrics", zap.Error(err))
				}
			}
			fmt.Printf("loaded: nodes=%d edges=%d skipped=%d\n", stats.Nodes, stats.Edges, stats.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the graph-export CSV (required)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path for the schema file; an existing file is validated instead of written")
	cmd.Flags().BoolVar(&force, "force", false, "reload even when the store is already populated")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "upsert batch size (default 200)")
	cmd.MarkFlagRequired("csv")

	return cmd
}

func newGenerateCmd() *cobra.Command {
	var outputDir string
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate QA items from graph patterns and literature",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			model, err := llm.NewClient(llm.Options{
				APIKey:      cfg.OpenAIAPIKey,
				BaseURL:     cfg.OpenAIBaseURL,
				Model:       cfg.LLMModel,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
			})
			if err != nil {
				return fmt.Errorf("failed to init language model client: %w", err)
			}

			writer, err := artifacts.NewWriter(cfg.OutputDir)
			if err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			collector := metrics.NewCollector()
			retriever := pubmed.NewClient(cfg.PubMedBaseURL, cfg.PubMedMaxDocs)
			generator := qa.NewGenerator(store, retriever, model, logger, writer, collector, qa.GeneratorOptions{
				Targets: map[qa.QuestionType]int{
					qa.OneHop:       cfg.Targets.OneHop,
					qa.TwoHop:       cfg.Targets.TwoHop,
					qa.Intersection: cfg.Targets.Intersection,
					qa.Attribute:    cfg.Targets.Attribute,
				},
				SampleLimit:       cfg.SampleLimit,
				IntermediateEvery: cfg.IntermediateEvery,
				Seed:              seed,
			})

			start := time.Now()
			items, err := generator.Run(ctx)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			kept, dropped := qa.Filter(items, qa.DefaultRubric())
			for reason, count := range dropped {
				logger.Info("filter dropped items", zap.String("reason", reason), zap.Int("count", count))
			}

			path, err := writer.WriteJSON("qa_pairs.json", kept)
			if err != nil {
				return fmt.Errorf("failed to write benchmark: %w", err)
			}

			if cfg.MetricsEnabled {
				if err := collector.Write(cfg.MetricsPath); err != nil {
					logger.Warn("failed to write metrics", zap.Error(err))
				}
			}
			uploadArtifacts(ctx, cfg, logger)

			logger.Info("benchmark written",
				zap.String("path", path),
				zap.Int("generated", len(items)),
				zap.Int("kept", len(kept)),
				zap.Duration("duration", time.Since(start)))
			fmt.Printf("generated=%d kept=%d output=%s\n", len(items), len(kept), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "output directory (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed, 0 = time-based")

	return cmd
}

func newEvaluateCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var model string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score QA items with a rater model on the 1-5 rubric",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if model == "" {
				model = cfg.EvalModel
			}

			var items []qa.Item
			if err := artifacts.ReadJSON(inputPath, &items); err != nil {
				return fmt.Errorf("failed to read QA items: %w", err)
			}

			// Ratings are a single digit; cap tokens accordingly.
			rater, err := llm.NewClient(llm.Options{
				APIKey:      cfg.OpenAIAPIKey,
				BaseURL:     cfg.OpenAIBaseURL,
				Model:       model,
				Temperature: cfg.Temperature,
				MaxTokens:   10,
			})
			if err != nil {
				return fmt.Errorf("failed to init rater client: %w", err)
			}

			collector := metrics.NewCollector()
			scores, err := eval.NewEvaluator(rater, logger, collector).EvaluateDataset(cmd.Context(), items)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}

			writer, err := artifacts.NewWriter(filepath.Dir(outputPath))
			if err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path, err := writer.WriteJSON(filepath.Base(outputPath), scores)
			if err != nil {
				return fmt.Errorf("failed to write scores: %w", err)
			}

			if cfg.MetricsEnabled {
				if err := collector.Write(cfg.MetricsPath); err != nil {
					logger.Warn("failed to write metrics", zap.Error(err))
				}
			}
			fmt.Printf("evaluated=%d model=%s output=%s\n", len(scores), model, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "QA items file (required)")
	cmd.Flags().StringVar(&outputPath, "output", "", "score output file (required)")
	cmd.Flags().StringVar(&model, "model", "", "rater model (default from config)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func newAgreementCmd() *cobra.Command {
	var files []string
	var names []string
	var scoreTypes []string

	cmd := &cobra.Command{
		Use:   "agreement",
		Short: "Compute inter-rater agreement across score files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(files) != len(names) {
				return fmt.Errorf("--files and --names must have the same length (%d vs %d)", len(files), len(names))
			}
			if len(files) < 2 {
				return fmt.Errorf("agreement needs at least two score files")
			}

			raters := make([]eval.Rater, 0, len(files))
			for idx, file := range files {
				rater, err := eval.LoadRater(names[idx], file)
				if err != nil {
					return err
				}
				raters = append(raters, rater)
			}

			report, err := eval.Analyze(raters, scoreTypes)
			if err != nil {
				return err
			}

			fmt.Printf("raters: %s\n", strings.Join(report.Raters, ", "))
			fmt.Printf("common QA items: %d\n", report.CommonQA)
			for _, dimension := range scoreTypes {
				dimReport, ok := report.Dimensions[dimension]
				if !ok {
					fmt.Printf("\n%s: no complete items\n", dimension)
					continue
				}
				fmt.Printf("\n%s (%d items):\n", dimension, dimReport.Items)
				for pair, ratio := range dimReport.Pairwise {
					fmt.Printf("  %s: %.4f (%.2f%%)\n", pair, ratio, ratio*100)
				}
				fmt.Printf("  average pairwise: %.4f (%.2f%%)\n", dimReport.AveragePairwise, dimReport.AveragePairwise*100)
				if dimReport.GroupRatio != nil {
					fmt.Printf("  group ratio: %.4f (%.2f%%)\n", *dimReport.GroupRatio, *dimReport.GroupRatio*100)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&files, "files", nil, "score files, one per rater (required)")
	cmd.Flags().StringSliceVar(&names, "names", nil, "rater names matching --files (required)")
	cmd.Flags().StringSliceVar(&scoreTypes, "score-types", eval.DefaultDimensions, "score dimensions to analyze")
	cmd.MarkFlagRequired("files")
	cmd.MarkFlagRequired("names")

	return cmd
}

func uploadArtifacts(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if !cfg.ObjectStoreEnabled() {
		return
	}
	prefix := cfg.RunID
	if cfg.ObjectStorePrefix != "" {
		prefix = strings.TrimSuffix(cfg.ObjectStorePrefix, "/") + "/" + cfg.RunID
	}
	uploader, err := artifacts.NewUploader(artifacts.UploadConfig{
		Endpoint:  cfg.ObjectStoreEndpoint,
		Bucket:    cfg.ObjectStoreBucket,
		Prefix:    prefix,
		AccessKey: cfg.ObjectStoreAccessKey,
		SecretKey: cfg.ObjectStoreSecretKey,
		Insecure:  cfg.ObjectStoreInsecure,
	})
	if err != nil {
		logger.Warn("object store client init failed", zap.Error(err))
		return
	}
	keys, err := uploader.UploadDir(ctx, cfg.OutputDir)
	if err != nil {
		logger.Warn("artifact upload failed", zap.Error(err))
		return
	}
	logger.Info("artifacts uploaded", zap.Int("objects", len(keys)), zap.String("bucket", cfg.ObjectStoreBucket))
}
