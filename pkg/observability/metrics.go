package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchAPI is the subset of the CloudWatch client used for metrics.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes pipeline counters to CloudWatch. Publication is
// best-effort: a failed put is ignored so metrics can never fail the
// operation being measured.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
}

// NewMetrics creates a metrics publisher under the given namespace
func NewMetrics(namespace string, client CloudWatchAPI) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
	}
}

// Count publishes a count metric
func (m *Metrics) Count(ctx context.Context, name string, value float64) {
	m.put(ctx, name, value, types.StandardUnitCount)
}

// Duration publishes a duration metric in milliseconds
func (m *Metrics) Duration(ctx context.Context, name string, d time.Duration) {
	m.put(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds)
}

func (m *Metrics) put(ctx context.Context, name string, value float64, unit types.StandardUnit) {
	if m.client == nil {
		return
	}

	_, _ = m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
			},
		},
	})
}

// Metric names emitted by the pipeline.
const (
	MetricRecordsProcessed = "RecordsProcessed"
	MetricRecordsIndexed   = "RecordsIndexed"
	MetricCacheWrites      = "CacheWrites"
	MetricCacheSkips       = "CacheSkips"
	MetricSearchLatency    = "SearchLatency"
	MetricLookupLatency    = "LookupLatency"
)
