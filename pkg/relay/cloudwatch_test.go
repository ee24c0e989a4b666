package relay

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log"
	"testing"
)

type fakeMetrics struct {
	inputs []*cloudwatch.PutMetricDataInput
	errs   []error
}

func (f *fakeMetrics) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type fakeProvider struct {
	client      *fakeMetrics
	err         error
	invalidated int
}

func (f *fakeProvider) Client(context.Context) (MetricsAPI, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func (f *fakeProvider) Invalidate() {
	f.invalidated++
}

func quietPublisher(cw MetricsClientProvider) SeverityPublisher {
	pub := NewSeverityPublisher(cw, "Boards", "Lines", "Device")
	pub.retryDelay = 0
	pub.logger = log.New(io.Discard, "", 0)
	return pub
}

func TestPublishLine(t *testing.T) {
	cw := &fakeProvider{client: &fakeMetrics{}}
	require.NoError(t, quietPublisher(cw).PublishLine(context.Background(), "ttyACM0", "ERROR"))

	require.Len(t, cw.client.inputs, 1)
	input := cw.client.inputs[0]
	assert.Equal(t, "Boards", aws.ToString(input.Namespace))
	require.Len(t, input.MetricData, 1)
	datum := input.MetricData[0]
	assert.Equal(t, "Lines", aws.ToString(datum.MetricName))
	assert.Equal(t, types.StandardUnitCount, datum.Unit)
	assert.Equal(t, 1.0, aws.ToFloat64(datum.Value))
	assert.Equal(t, []types.Dimension{
		{Name: aws.String("Device"), Value: aws.String("ttyACM0")},
		{Name: aws.String("Severity"), Value: aws.String("ERROR")},
	}, datum.Dimensions)
}

func TestPublishLineRetriesOnExpiredCreds(t *testing.T) {
	cw := &fakeProvider{client: &fakeMetrics{errs: []error{&smithy.GenericAPIError{Code: "ExpiredToken"}}}}
	require.NoError(t, quietPublisher(cw).PublishLine(context.Background(), "COM3", "WARN"))

	assert.Equal(t, 1, cw.invalidated)
	assert.Len(t, cw.client.inputs, 2)
}

func TestPublishLineOtherErrorsAreReturned(t *testing.T) {
	cw := &fakeProvider{client: &fakeMetrics{errs: []error{errors.New("throttled")}}}
	err := quietPublisher(cw).PublishLine(context.Background(), "COM3", "INFO")

	assert.EqualError(t, err, "throttled")
	assert.Zero(t, cw.invalidated)
	assert.Len(t, cw.client.inputs, 1)
}

func TestPublishLineProviderFailure(t *testing.T) {
	cw := &fakeProvider{err: errors.New("no credentials")}
	err := quietPublisher(cw).PublishLine(context.Background(), "COM3", "INFO")

	assert.EqualError(t, err, "no credentials")
}
