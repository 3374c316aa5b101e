package config

import (
	"os"
	"time"

	"github.com/nsoti/resource-demand-prediction-ml-model/deepar"
	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration.
type Config struct {
	Input           InputConfig    `yaml:"input"`
	AWS             AWSConfig      `yaml:"aws"`
	Hyperparameters Hyperparams    `yaml:"hyperparameters"`
	Pipeline        PipelineConfig `yaml:"pipeline"`
	Output          OutputConfig   `yaml:"output"`
}

// InputConfig locates the occupancy table. Path may be a local file or an
// s3:// URI.
type InputConfig struct {
	Path string `yaml:"path"`
}

// AWSConfig locates the remote training and hosting resources.
type AWSConfig struct {
	Region              string `yaml:"region"`
	Bucket              string `yaml:"bucket"`
	Prefix              string `yaml:"prefix"`
	RoleARN             string `yaml:"role_arn"`
	TrainingImage       string `yaml:"training_image"`
	EndpointName        string `yaml:"endpoint_name"`
	InstanceType        string `yaml:"instance_type"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

// Hyperparams mirrors the remote algorithm's tuning surface.
type Hyperparams struct {
	PredictionLength int     `yaml:"prediction_length"`
	ContextLength    int     `yaml:"context_length"`
	Epochs           int     `yaml:"epochs"`
	LearningRate     float64 `yaml:"learning_rate"`
	NumLayers        int     `yaml:"num_layers"`
	NumCells         int     `yaml:"num_cells"`
}

// PipelineConfig holds the local processing knobs.
type PipelineConfig struct {
	MinHistory     int   `yaml:"min_history"`
	VizSampleCount int   `yaml:"viz_sample_count"`
	Seed           int64 `yaml:"seed"`
}

// OutputConfig names the rendered artifacts.
type OutputConfig struct {
	ChartPath  string `yaml:"chart_path"`
	ReportPath string `yaml:"report_path"`
}

// Load reads the configuration from the given path and fills defaults for
// anything unset.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration defaults without reading a file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	def := deepar.DefaultHyperparameters()
	if c.Hyperparameters.PredictionLength <= 0 {
		c.Hyperparameters.PredictionLength = def.PredictionLength
	}
	if c.Hyperparameters.ContextLength <= 0 {
		c.Hyperparameters.ContextLength = def.ContextLength
	}
	if c.Hyperparameters.Epochs <= 0 {
		c.Hyperparameters.Epochs = def.Epochs
	}
	if c.Hyperparameters.LearningRate <= 0 {
		c.Hyperparameters.LearningRate = def.LearningRate
	}
	if c.Hyperparameters.NumLayers <= 0 {
		c.Hyperparameters.NumLayers = def.NumLayers
	}
	if c.Hyperparameters.NumCells <= 0 {
		c.Hyperparameters.NumCells = def.NumCells
	}
	if c.Pipeline.MinHistory <= 0 {
		c.Pipeline.MinHistory = c.Hyperparameters.ContextLength + c.Hyperparameters.PredictionLength
	}
	if c.Pipeline.VizSampleCount <= 0 {
		c.Pipeline.VizSampleCount = 5
	}
	if c.AWS.PollIntervalSeconds <= 0 {
		c.AWS.PollIntervalSeconds = 30
	}
	if c.Output.ChartPath == "" {
		c.Output.ChartPath = "forecast_comparison.html"
	}
	if c.Output.ReportPath == "" {
		c.Output.ReportPath = "forecast_metrics.xlsx"
	}
}

// DeepAR converts the tuning section to the request form.
func (c *Config) DeepAR() deepar.Hyperparameters {
	return deepar.Hyperparameters{
		PredictionLength: c.Hyperparameters.PredictionLength,
		ContextLength:    c.Hyperparameters.ContextLength,
		Epochs:           c.Hyperparameters.Epochs,
		LearningRate:     c.Hyperparameters.LearningRate,
		NumLayers:        c.Hyperparameters.NumLayers,
		NumCells:         c.Hyperparameters.NumCells,
	}
}

// ClientConfig converts the AWS section to the forecasting client form.
func (c *Config) ClientConfig() deepar.ClientConfig {
	return deepar.ClientConfig{
		Bucket:        c.AWS.Bucket,
		Prefix:        c.AWS.Prefix,
		RoleARN:       c.AWS.RoleARN,
		TrainingImage: c.AWS.TrainingImage,
		EndpointName:  c.AWS.EndpointName,
		InstanceType:  c.AWS.InstanceType,
		PollInterval:  time.Duration(c.AWS.PollIntervalSeconds) * time.Second,
	}
}
