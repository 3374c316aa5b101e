package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	occupancy "github.com/nsoti/resource-demand-prediction-ml-model"
	"github.com/nsoti/resource-demand-prediction-ml-model/config"
	"github.com/nsoti/resource-demand-prediction-ml-model/deepar"
	"github.com/nsoti/resource-demand-prediction-ml-model/usagedataset"
	"github.com/pkg/profile"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "pipeline configuration file")
	profileMode := flag.Bool("profile", false, "write a cpu profile for the run")
	flag.Parse()

	if *profileMode {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}

	if err := run(context.Background(), *cfgPath, logger); err != nil {
		logger.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string, logger *slog.Logger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration, %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("unable to load AWS configuration, %w", err)
	}

	ds, err := loadDataset(ctx, awsCfg, cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("unable to load dataset, %w", err)
	}
	logger.Info("dataset loaded", "rows", len(ds.Rows), "resources", len(ds.ResourceIDs()))

	client := deepar.NewClient(awsCfg, cfg.ClientConfig(), logger)
	pipe, err := occupancy.New(&occupancy.Options{
		Hyperparameters: cfg.DeepAR(),
		MinHistory:      cfg.Pipeline.MinHistory,
		VizSampleCount:  cfg.Pipeline.VizSampleCount,
		Logger:          logger,
	}, client)
	if err != nil {
		return err
	}

	res, err := pipe.Run(ctx, ds)
	if err != nil {
		return err
	}
	logger.Info("evaluation complete",
		"resources", len(res.Resources),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed),
		"mae", res.Aggregate.MAE,
		"rmse", res.Aggregate.RMSE,
	)

	seed := cfg.Pipeline.Seed
	if seed == 0 {
		seed = int64(os.Getpid())
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	if err := pipe.RenderCharts(cfg.Output.ChartPath, res, rng); err != nil {
		return fmt.Errorf("unable to render charts, %w", err)
	}
	if err := occupancy.WriteReport(cfg.Output.ReportPath, res); err != nil {
		return fmt.Errorf("unable to write metrics report, %w", err)
	}
	logger.Info("artifacts written", "charts", cfg.Output.ChartPath, "report", cfg.Output.ReportPath)
	return nil
}

// loadDataset reads the occupancy table from a local file or an s3:// URI.
func loadDataset(ctx context.Context, awsCfg aws.Config, path string) (*usagedataset.Dataset, error) {
	if !strings.HasPrefix(path, "s3://") {
		return usagedataset.LoadCSV(path)
	}

	trimmed := strings.TrimPrefix(path, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok {
		return nil, fmt.Errorf("object store path %q has no key", path)
	}
	client := s3.NewFromConfig(awsCfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return usagedataset.ReadCSV(out.Body)
}
