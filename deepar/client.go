package deepar

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/goccy/go-json"
)

// ServiceError surfaces a remote training or inference failure along with
// whatever diagnostic the service reported.
type ServiceError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("forecasting service %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("forecasting service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// QuantileForecast is the probabilistic forecast returned per inference
// request: one value per horizon step at each requested percentile.
type QuantileForecast struct {
	P10 []float64 `json:"p10"`
	P50 []float64 `json:"p50"`
	P90 []float64 `json:"p90"`
}

// Forecaster is the narrow contract the pipeline holds on the remote
// service. Train submits a serialized batch and blocks until the remote job
// reaches a terminal state, returning the model artifact location. Forecast
// requests quantile predictions for a single series record.
type Forecaster interface {
	Train(ctx context.Context, payload []byte, h Hyperparameters) (string, error)
	Forecast(ctx context.Context, rec Record) (*QuantileForecast, error)
}

// ClientConfig locates the remote training and hosting resources.
type ClientConfig struct {
	Bucket        string
	Prefix        string
	RoleARN       string
	TrainingImage string
	EndpointName  string
	InstanceType  string
	JobNamePrefix string
	PollInterval  time.Duration
	MaxRuntime    time.Duration
}

func (c *ClientConfig) applyDefaults() {
	if c.InstanceType == "" {
		c.InstanceType = "ml.m5.xlarge"
	}
	if c.JobNamePrefix == "" {
		c.JobNamePrefix = "occupancy-deepar"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.MaxRuntime <= 0 {
		c.MaxRuntime = 2 * time.Hour
	}
}

// Client talks to the managed forecasting service: payloads are staged in
// the object store, training runs as a remote job polled to completion, and
// inference goes through the hosted endpoint.
type Client struct {
	storage *s3.Client
	train   *sagemaker.Client
	runtime *sagemakerruntime.Client
	cfg     ClientConfig
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewClient builds a Client from a resolved AWS configuration.
func NewClient(awsCfg aws.Config, cfg ClientConfig, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		storage: s3.NewFromConfig(awsCfg),
		train:   sagemaker.NewFromConfig(awsCfg),
		runtime: sagemakerruntime.NewFromConfig(awsCfg),
		cfg:     cfg,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Train uploads the JSON Lines payload, submits the training job, and polls
// until the job reaches a terminal status. Returns the S3 location of the
// trained model artifact. The caller abandons the job by cancelling ctx.
func (c *Client) Train(ctx context.Context, payload []byte, h Hyperparameters) (string, error) {
	key := path.Join(c.cfg.Prefix, "train", "data.json")
	if _, err := c.storage.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	}); err != nil {
		return "", &ServiceError{Op: "upload", Err: err}
	}

	jobName := fmt.Sprintf("%s-%d", c.cfg.JobNamePrefix, c.nowFunc().Unix())
	trainURI := fmt.Sprintf("s3://%s/%s", c.cfg.Bucket, key)
	outputURI := fmt.Sprintf("s3://%s/%s", c.cfg.Bucket, path.Join(c.cfg.Prefix, "output"))

	_, err := c.train.CreateTrainingJob(ctx, &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(jobName),
		RoleArn:         aws.String(c.cfg.RoleARN),
		HyperParameters: h.Map(),
		AlgorithmSpecification: &smtypes.AlgorithmSpecification{
			TrainingImage:     aws.String(c.cfg.TrainingImage),
			TrainingInputMode: smtypes.TrainingInputModeFile,
		},
		InputDataConfig: []smtypes.Channel{
			{
				ChannelName: aws.String("train"),
				ContentType: aws.String("json"),
				DataSource: &smtypes.DataSource{
					S3DataSource: &smtypes.S3DataSource{
						S3DataType:             smtypes.S3DataTypeS3Prefix,
						S3Uri:                  aws.String(trainURI),
						S3DataDistributionType: smtypes.S3DataDistributionFullyReplicated,
					},
				},
			},
		},
		OutputDataConfig: &smtypes.OutputDataConfig{
			S3OutputPath: aws.String(outputURI),
		},
		ResourceConfig: &smtypes.ResourceConfig{
			InstanceType:   smtypes.TrainingInstanceType(c.cfg.InstanceType),
			InstanceCount:  aws.Int32(1),
			VolumeSizeInGB: aws.Int32(10),
		},
		StoppingCondition: &smtypes.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(c.cfg.MaxRuntime.Seconds())),
		},
	})
	if err != nil {
		return "", &ServiceError{Op: "create training job", Err: err}
	}
	c.logger.Info("training job submitted", "job", jobName, "input", trainURI)

	return c.waitForTrainingJob(ctx, jobName)
}

func (c *Client) waitForTrainingJob(ctx context.Context, jobName string) (string, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		out, err := c.train.DescribeTrainingJob(ctx, &sagemaker.DescribeTrainingJobInput{
			TrainingJobName: aws.String(jobName),
		})
		if err != nil {
			return "", &ServiceError{Op: "describe training job", Err: err}
		}

		switch out.TrainingJobStatus {
		case smtypes.TrainingJobStatusCompleted:
			return aws.ToString(out.ModelArtifacts.S3ModelArtifacts), nil
		case smtypes.TrainingJobStatusFailed:
			return "", &ServiceError{Op: "training", Reason: aws.ToString(out.FailureReason)}
		case smtypes.TrainingJobStatusStopped:
			return "", &ServiceError{Op: "training", Reason: "job stopped"}
		}
		c.logger.Debug("training job in progress", "job", jobName, "status", out.TrainingJobStatus)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

type inferenceRequest struct {
	Instances     []Record               `json:"instances"`
	Configuration inferenceConfiguration `json:"configuration"`
}

type inferenceConfiguration struct {
	NumSamples  int      `json:"num_samples"`
	OutputTypes []string `json:"output_types"`
	Quantiles   []string `json:"quantiles"`
}

type inferenceResponse struct {
	Predictions []struct {
		Quantiles map[string][]float64 `json:"quantiles"`
	} `json:"predictions"`
}

// Forecast invokes the hosted endpoint for a single series record and
// returns the p10/p50/p90 quantile predictions over the forecast horizon.
func (c *Client) Forecast(ctx context.Context, rec Record) (*QuantileForecast, error) {
	body, err := json.Marshal(inferenceRequest{
		Instances: []Record{rec},
		Configuration: inferenceConfiguration{
			NumSamples:  100,
			OutputTypes: []string{"quantiles"},
			Quantiles:   []string{"0.1", "0.5", "0.9"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to marshal inference request, %w", err)
	}

	out, err := c.runtime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(c.cfg.EndpointName),
		ContentType:  aws.String("application/json"),
		Body:         body,
	})
	if err != nil {
		return nil, &ServiceError{Op: "invoke endpoint", Err: err}
	}

	return ParseInferenceResponse(out.Body)
}

// ParseInferenceResponse decodes an endpoint response body into the three
// quantile sequences.
func ParseInferenceResponse(body []byte) (*QuantileForecast, error) {
	var resp inferenceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ServiceError{Op: "decode response", Err: err}
	}
	if len(resp.Predictions) == 0 {
		return nil, &ServiceError{Op: "decode response", Reason: "no predictions in response"}
	}
	q := resp.Predictions[0].Quantiles
	fc := &QuantileForecast{
		P10: q["0.1"],
		P50: q["0.5"],
		P90: q["0.9"],
	}
	if len(fc.P10) != len(fc.P50) || len(fc.P50) != len(fc.P90) || len(fc.P50) == 0 {
		return nil, &ServiceError{Op: "decode response", Reason: "quantile sequences missing or misaligned"}
	}
	return fc, nil
}
