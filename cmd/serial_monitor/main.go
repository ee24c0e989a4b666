package main

import (
	"context"
	"dancavallaro.com/serialmon/pkg/logging"
	"dancavallaro.com/serialmon/pkg/relay"
	"dancavallaro.com/serialmon/pkg/serialmon"
	"errors"
	"flag"
	"fmt"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"os/signal"
	"syscall"
)

var (
	defaultPort     = flag.String("default-port", serialmon.DefaultPort(), "port to use when none is given")
	board           = flag.String("board", "", "board name shown in the banner")
	keepEmpty       = flag.Bool("keep-empty", false, "print lines that are empty after trimming")
	colorMode       = flag.String("color", "auto", "highlight severities: auto, always or never")
	noPause         = flag.Bool("no-pause", false, "exit without waiting for Enter")
	debug           = flag.Bool("debug", false, "enable debug logging")
	mqttAddress     = flag.String("mqttAddress", "", "Address:port of MQTT broker to forward lines to")
	mqttUsername    = flag.String("mqttUsername", "", "MQTT username")
	mqttPassword    = flag.String("mqttPassword", "", "MQTT password")
	mqttTopicPrefix = flag.String("mqttTopicPrefix", relay.DefaultTopicPrefix, "MQTT topic prefix")
	deviceName      = flag.String("deviceName", "", "device name used in MQTT topics (default derived from port)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [port] [baud]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(run())
}

func run() int {
	logger, err := logging.New("serial_monitor", *debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	in, err := serialmon.ParseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}
	in.DefaultPort = *defaultPort

	color, err := useColor(*colorMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	serialmon.PrintBanner(os.Stdout, "Serial Monitor", *board)

	ports, err := serialmon.ListPorts()
	if err != nil {
		logger.Warn("Port discovery failed", zap.Error(err))
	}
	serialmon.PrintPorts(os.Stdout, ports)
	logger.Debug("Discovered ports", zap.Strings("ports", serialmon.Devices(ports)))

	prompter := serialmon.NewLinePrompter(os.Stdin, os.Stdout)
	session := serialmon.Resolve(in, serialmon.Devices(ports), prompter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []serialmon.Sink
	if *mqttAddress != "" {
		name := *deviceName
		if name == "" {
			name = relay.DeviceName(session.Port)
		}
		pub, err := relay.NewMQTTPublisher(relay.MQTTConfig{
			BrokerAddress: *mqttAddress,
			Username:      *mqttUsername,
			Password:      *mqttPassword,
			TopicPrefix:   *mqttTopicPrefix,
			Logger:        logging.StdAt(logger, "mqtt", zapcore.WarnLevel),
		}, name)
		if err != nil {
			logger.Error("Not forwarding lines to MQTT", zap.Error(err))
		} else {
			defer func() {
				logger.Info("Shutting down MQTT publisher now...")
				pub.Close()
			}()
			logger.Info("Forwarding lines", zap.String("topic", pub.Topic()))
			sinks = append(sinks, pub)
		}
	}

	mon := serialmon.NewMonitor(serialmon.MonitorConfig{
		Session:   session,
		Printer:   serialmon.Printer{Out: os.Stdout, Color: color},
		KeepEmpty: *keepEmpty,
		Sinks:     sinks,
	})

	code := 0
	if err := mon.Run(ctx); err != nil {
		var openErr *serialmon.PortOpenError
		if errors.As(err, &openErr) {
			serialmon.ReportOpenError(os.Stdout, openErr)
		} else {
			fmt.Println(err)
		}
		code = 1
	}

	stop()
	if !*noPause && isatty.IsTerminal(os.Stdin.Fd()) {
		if err := pause(prompter); err != nil {
			logger.Debug("Exit pause interrupted", zap.Error(err))
		}
	}
	return code
}

// pause holds the console window open until the operator presses Enter.
func pause(p serialmon.Prompter) error {
	_, err := p.Prompt("\nPress Enter to exit...")
	return err
}

func useColor(mode string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()), nil
	default:
		return false, fmt.Errorf("%w: unknown -color value %q", serialmon.ErrUsage, mode)
	}
}
