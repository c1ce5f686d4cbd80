// Package eventbridge publishes pipeline lifecycle events to an EventBridge
// bus.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"eventpipe/application/ports"
)

const (
	eventSource     = "eventpipe.processor"
	batchDetailType = "BatchProcessed"
)

// EventBridgeAPI is the subset of the EventBridge client we use.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error)
}

// Publisher implements ports.PipelinePublisher. An empty bus name disables
// publication.
type Publisher struct {
	client  EventBridgeAPI
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge publisher for the given bus
func NewPublisher(client EventBridgeAPI, busName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// PublishBatchProcessed announces one completed ingest batch
func (p *Publisher) PublishBatchProcessed(ctx context.Context, summary ports.BatchSummary) error {
	if p.busName == "" {
		return nil
	}

	detail, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode batch summary: %w", err)
	}

	out, err := p.client.PutEvents(ctx, &awseventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(batchDetailType),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		return fmt.Errorf("put events: %d entries failed", out.FailedEntryCount)
	}

	p.logger.Debug("published batch summary",
		zap.Int("processed", summary.Processed),
		zap.Int("cached", summary.Cached),
	)
	return nil
}
