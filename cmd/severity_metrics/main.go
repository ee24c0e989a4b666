package main

import (
	"context"
	"dancavallaro.com/serialmon/awso"
	"dancavallaro.com/serialmon/pkg/logging"
	"dancavallaro.com/serialmon/pkg/relay"
	"flag"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type linePublisher interface {
	PublishLine(ctx context.Context, device string, severity string) error
}

type lineHandler struct {
	ctx       context.Context
	publisher linePublisher
	logger    *zap.Logger
}

func (handler lineHandler) Line(device string, msg relay.LineMessage) {
	handler.logger.Debug("Received line", zap.String("device", device), zap.String("severity", msg.Severity))
	if err := handler.publisher.PublishLine(handler.ctx, device, msg.Severity); err != nil {
		handler.logger.Error("Failed to publish line metric", zap.String("device", device), zap.Error(err))
	}
}

func (handler lineHandler) Invalid(topic string, message string) {
	handler.logger.Warn("Received invalid line message", zap.String("topic", topic), zap.String("message", message))
}

var (
	region          = flag.String("region", "us-east-1", "Cloudwatch region to use")
	metricNamespace = flag.String("metricNamespace", "SerialMonitor", "Metric namespace to publish in")
	metricName      = flag.String("metricName", "Lines", "Metric name to use for line counts")
	metricDimension = flag.String("metricDimension", "Device", "Dimension name to use for identifying devices")
	mqttAddress     = flag.String("mqttAddress", "localhost:1883", "Address:port of MQTT broker")
	mqttUsername    = flag.String("mqttUsername", "<none>", "MQTT username")
	mqttPassword    = flag.String("mqttPassword", "<none>", "MQTT password")
	mqttTopicPrefix = flag.String("mqttTopicPrefix", relay.DefaultTopicPrefix, "MQTT topic prefix")
	debug           = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	logger, err := logging.New("severity_metrics", *debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := checkIdentity(ctx, logger); err != nil {
		logger.Fatal("AWS credentials are not usable", zap.Error(err))
	}

	cw := awso.NewClientProvider(*region, func(cfg aws.Config) relay.MetricsAPI {
		logger.Info("Creating new Cloudwatch client")
		return cloudwatch.NewFromConfig(cfg)
	})
	publisher := relay.NewSeverityPublisher(cw, *metricNamespace, *metricName, *metricDimension)

	listener, err := relay.NewMQTTListener(relay.MQTTConfig{
		BrokerAddress: *mqttAddress,
		Username:      *mqttUsername,
		Password:      *mqttPassword,
		TopicPrefix:   *mqttTopicPrefix,
		Logger:        logging.Std(logger, "mqtt"),
	})
	if err != nil {
		logger.Fatal("Cannot connect to MQTT broker", zap.Error(err))
	}
	defer func() {
		logger.Info("Shutting down MQTT listener now...")
		listener.Close()
	}()
	if err := listener.RegisterHandler(lineHandler{ctx, publisher, logger}); err != nil {
		logger.Fatal("Cannot subscribe to line topics", zap.Error(err))
	}
	logger.Info("Listening for lines", zap.String("topic", relay.LineSubscription(*mqttTopicPrefix)))

	<-ctx.Done()
}

func checkIdentity(ctx context.Context, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	provider := awso.NewClientProvider(*region, func(cfg aws.Config) *sts.Client {
		return sts.NewFromConfig(cfg)
	})
	client, err := provider.Client(ctx)
	if err != nil {
		return err
	}
	resp, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return err
	}
	logger.Info("Publishing as", zap.String("arn", aws.ToString(resp.Arn)))
	return nil
}
