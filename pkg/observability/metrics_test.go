package observability

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsCount(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics("EventPipeline/test", cw)

	m.Count(context.Background(), MetricRecordsProcessed, 25)

	require.Len(t, cw.inputs, 1)
	assert.Equal(t, "EventPipeline/test", *cw.inputs[0].Namespace)

	datum := cw.inputs[0].MetricData[0]
	assert.Equal(t, MetricRecordsProcessed, *datum.MetricName)
	assert.Equal(t, float64(25), *datum.Value)
	assert.Equal(t, types.StandardUnitCount, datum.Unit)
}

func TestMetricsDuration(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics("EventPipeline/test", cw)

	m.Duration(context.Background(), MetricSearchLatency, 1500*time.Millisecond)

	require.Len(t, cw.inputs, 1)
	datum := cw.inputs[0].MetricData[0]
	assert.Equal(t, float64(1500), *datum.Value)
	assert.Equal(t, types.StandardUnitMilliseconds, datum.Unit)
}

func TestMetricsNilClient(t *testing.T) {
	m := NewMetrics("EventPipeline/test", nil)

	// must not panic
	m.Count(context.Background(), MetricCacheWrites, 1)
	m.Duration(context.Background(), MetricLookupLatency, time.Second)
}
