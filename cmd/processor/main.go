// Package main implements the Lambda handler for the ingest pipeline.
// It accepts three invocation shapes: SQS batches, EventBridge scheduled
// triggers (which generate synthetic records), and direct invocations
// carrying records inline.
package main

import (
	"context"
	"encoding/json"
	"log"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"eventpipe/application/ingest"
	"eventpipe/domain/event"
	"eventpipe/infrastructure/config"
	"eventpipe/infrastructure/di"
)

// Global dependencies for Lambda performance optimization
var (
	cfg       *config.Config
	ingestSvc *ingest.Service
	generator *event.Generator
	logger    *zap.Logger
)

func init() {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	ingestSvc = container.Ingest
	generator = container.Generator
	logger = container.Logger

	log.Println("Processor handler initialized successfully")
}

// DirectRequest is the payload shape for direct invocations. Either a list
// of inline records or a count of synthetic records to generate.
type DirectRequest struct {
	Events []*event.Event `json:"events,omitempty"`
	Count  int            `json:"count,omitempty"`
}

// BatchResponse reports what happened to one invocation's records.
type BatchResponse struct {
	Processed int `json:"processed"`
	Indexed   int `json:"indexed"`
	Cached    int `json:"cached"`
	Skipped   int `json:"skipped"`
}

// HandleBatch inspects the raw payload to decide the invocation shape,
// collects the records, and runs them through the ingest service.
func HandleBatch(ctx context.Context, raw json.RawMessage) (*BatchResponse, error) {
	recs, err := collectRecords(raw)
	if err != nil {
		return nil, err
	}

	summary, err := ingestSvc.ProcessBatch(ctx, recs)
	if err != nil {
		return nil, err
	}

	logger.Info("batch complete",
		zap.Int("processed", summary.Processed),
		zap.Int("indexed", summary.Indexed),
		zap.Int("cached", summary.Cached),
		zap.Int("skipped", summary.Skipped),
	)

	return &BatchResponse{
		Processed: summary.Processed,
		Indexed:   summary.Indexed,
		Cached:    summary.Cached,
		Skipped:   summary.Skipped,
	}, nil
}

// collectRecords turns any supported invocation payload into records.
func collectRecords(raw json.RawMessage) ([]*event.Event, error) {
	// SQS batch: each message body is one record
	var sqs awsevents.SQSEvent
	if err := json.Unmarshal(raw, &sqs); err == nil && len(sqs.Records) > 0 && sqs.Records[0].EventSource == "aws:sqs" {
		recs := make([]*event.Event, 0, len(sqs.Records))
		for _, msg := range sqs.Records {
			rec, err := event.Decode([]byte(msg.Body))
			if err != nil {
				logger.Warn("dropping undecodable message",
					zap.String("message_id", msg.MessageId),
					zap.Error(err),
				)
				continue
			}
			recs = append(recs, rec)
		}
		return recs, nil
	}

	// EventBridge scheduled trigger: generate a synthetic batch
	var scheduled awsevents.CloudWatchEvent
	if err := json.Unmarshal(raw, &scheduled); err == nil && scheduled.Source == "aws.events" {
		logger.Info("scheduled trigger, generating records",
			zap.Int("batch_size", cfg.GeneratorBatchSize),
		)
		return generator.GenerateBatch(cfg.GeneratorBatchSize), nil
	}

	// Direct invocation: inline records or a generation count
	var direct DirectRequest
	if err := json.Unmarshal(raw, &direct); err != nil {
		return nil, err
	}
	if len(direct.Events) > 0 {
		return direct.Events, nil
	}
	n := direct.Count
	if n <= 0 {
		n = cfg.GeneratorBatchSize
	}
	return generator.GenerateBatch(n), nil
}

func main() {
	lambda.Start(HandleBatch)
}
