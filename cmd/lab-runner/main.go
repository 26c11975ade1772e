// cmd/lab-runner/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"promptlab-workers/internal/common/config"
	"promptlab-workers/internal/common/database"
	"promptlab-workers/internal/common/genai"
	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/common/notify"
	"promptlab-workers/internal/common/observability"
	"promptlab-workers/internal/models"
	"promptlab-workers/pkg/templates"

	ai "promptlab-workers/internal/workers/refine/assemble-instruction"
	cp "promptlab-workers/internal/workers/refine/classify-prompt"

	qcs "promptlab-workers/internal/workers/data-access/query-curated-samples"
	qst "promptlab-workers/internal/workers/data-access/query-synthetic-tasks"

	plr "promptlab-workers/internal/workers/data-access/persist-lab-records"
	rb "promptlab-workers/internal/workers/lab/run-batch"

	sr "promptlab-workers/internal/workers/scoring/score-refinement"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	limit := flag.Int("limit", 0, "batch size (0 uses the configured default)")
	modelName := flag.String("model", "", "override the routed model for every run")
	dryRun := flag.Bool("dry-run", false, "walk the pipeline without writing runs or scores")
	classifyText := flag.String("classify", "", "classify one text and exit")
	flag.Parse()

	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lab runner...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pgClient *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pgClient, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pgClient.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "PostgreSQL initialization")
	if err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pgClient.Close()

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch initialization")
	if err != nil {
		zapLog.Fatal("elasticsearch unavailable", zap.Error(err))
	}

	// --- Init Redis (classification cache, optional) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err == nil {
			if err := redisClient.Ping(ctx); err != nil {
				zapLog.Warn("redis unreachable, classification cache disabled", zap.Error(err))
				redisClient = nil
			}
		}
		if redisClient != nil {
			defer redisClient.Close()
		}
	}

	// --- Metrics endpoint ---
	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("metrics endpoint listening", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				zapLog.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	registry := templates.NewRegistry()

	genaiClient := genai.NewClient(&genai.Config{
		BaseURL:    cfg.GenAI.BaseURL,
		APIKey:     cfg.GenAI.APIKey,
		Timeout:    time.Duration(cfg.GenAI.Timeout) * time.Millisecond,
		MaxRetries: cfg.GenAI.MaxRetries,
	}, log)

	// --- One-shot classification mode ---
	if *classifyText != "" {
		classifyCfg := cp.LoadConfig()
		classifyCfg.CacheTTL = time.Duration(cfg.Lab.ClassifyCacheTTL) * time.Second

		var llm cp.LLMClient
		if cfg.GenAI.ClassifierEnabled {
			llm = genaiClient
		}
		var cache *redis.Client
		if redisClient != nil {
			cache = redisClient.Client
		}
		classifier := cp.NewHandler(classifyCfg, registry, llm, cache, log)
		result := classifier.Execute(ctx, &cp.Input{Text: *classifyText})
		instruction := ai.NewHandler(registry).Build(result.TemplateID, "")

		out, _ := json.Marshal(struct {
			*cp.Output
			Instruction string `json:"instruction"`
		}{result, instruction})
		fmt.Println(string(out))
		return
	}

	// --- Batch mode ---
	batchLimit := *limit
	if batchLimit == 0 {
		batchLimit = cfg.Lab.DefaultLimit
	}

	syntheticSource := qst.NewHandler(qst.LoadConfig(), pgClient.DB, log)

	samplesCfg := qcs.LoadConfig()
	if cfg.Database.Elasticsearch.SamplesIndex != "" {
		samplesCfg.Index = cfg.Database.Elasticsearch.SamplesIndex
	}
	samplesSource := qcs.NewHandler(samplesCfg, esClient.Client, log)

	store := plr.NewHandler(plr.LoadConfig(), pgClient.DB, log)
	scorer := sr.NewHandler(log)

	runnerCfg := rb.LoadConfig()
	runnerCfg.MaxBatchSize = cfg.Lab.MaxBatchSize
	runnerCfg.EvalPlan = models.Plan(cfg.Lab.EvalPlan)
	runnerCfg.EvalVariant = models.ABVariant(cfg.Lab.EvalVariant)

	runner := rb.NewHandler(runnerCfg, registry, syntheticSource, samplesSource, store, genaiClient, scorer, obs, log)

	result, err := runner.Execute(ctx, &rb.Input{
		Limit:     batchLimit,
		ModelName: *modelName,
		DryRun:    *dryRun,
	})
	if err != nil {
		zapLog.Error("batch failed", zap.Error(err))
		os.Exit(1)
	}

	zapLog.Info("batch complete",
		zap.Int("runsCreated", result.RunsCreated),
		zap.Int("scoresCreated", result.ScoresCreated),
	)

	// --- Batch-completion notification (optional) ---
	if cfg.Notifications.SNSTopicARN != "" {
		notifier, err := notify.NewSNSNotifier(ctx, cfg.Notifications.AWSRegion, cfg.Notifications.SNSTopicARN)
		if err != nil {
			zapLog.Warn("sns notifier unavailable", zap.Error(err))
		} else {
			summary := notify.BatchSummary{
				Batch:         time.Now().UTC().Format(time.RFC3339),
				RunsCreated:   result.RunsCreated,
				ScoresCreated: result.ScoresCreated,
				DryRun:        *dryRun,
			}
			if err := notifier.PublishBatchSummary(ctx, summary); err != nil {
				zapLog.Warn("batch summary publish failed", zap.Error(err))
			}
		}
	}
}
