package relay

import (
	"context"
	"dancavallaro.com/serialmon/awso"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"log"
	"time"
)

type MetricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type MetricsClientProvider interface {
	Client(ctx context.Context) (MetricsAPI, error)
	Invalidate()
}

// SeverityPublisher counts monitored lines in CloudWatch, one datapoint per line,
// dimensioned by device and severity.
type SeverityPublisher struct {
	cw                MetricsClientProvider
	metricNamespace   string
	metricName        string
	deviceDimension   string
	severityDimension string
	retryDelay        time.Duration
	logger            Logger
}

func NewSeverityPublisher(
	cw MetricsClientProvider, metricNamespace string, metricName string, deviceDimension string,
) SeverityPublisher {
	return SeverityPublisher{
		cw:                cw,
		metricNamespace:   metricNamespace,
		metricName:        metricName,
		deviceDimension:   deviceDimension,
		severityDimension: "Severity",
		retryDelay:        5 * time.Second,
		logger:            log.Default(),
	}
}

func (pub SeverityPublisher) PublishLine(ctx context.Context, device string, severity string) error {
	if err := pub.publishLine(ctx, device, severity); err != nil {
		if !awso.IsExpired(err) {
			return err
		}

		pub.cw.Invalidate()
		pub.logger.Printf("IAM creds are expired, sleeping for %v then retrying", pub.retryDelay)
		time.Sleep(pub.retryDelay)

		if err := pub.publishLine(ctx, device, severity); err != nil {
			return err
		}
	}
	return nil
}

func (pub SeverityPublisher) publishLine(ctx context.Context, device string, severity string) error {
	client, err := pub.cw.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(pub.metricNamespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(pub.metricName),
				Dimensions: []types.Dimension{
					{
						Name:  aws.String(pub.deviceDimension),
						Value: aws.String(device),
					},
					{
						Name:  aws.String(pub.severityDimension),
						Value: aws.String(severity),
					},
				},
				Unit:  types.StandardUnitCount,
				Value: aws.Float64(1),
			},
		},
	})

	if err == nil {
		pub.logger.Printf("Published %s line metric for device %s", severity, device)
	}
	return err
}
