package main

import (
	"context"
	"dancavallaro.com/serialmon/pkg/serialmon"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	device := flag.String("device", serialmon.DefaultPort(), "serial device to read from")
	baud := flag.Int("baud", serialmon.DefaultBaud, "baudrate to use")
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("[read_serial] ")

	if *baud <= 0 {
		log.Fatalf("baud must be positive, got %d", *baud)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := newMonitor(*device, *baud, os.Stdout, log.Default(), serialmon.OpenPort)
	if err := run(ctx, mon, log.Default()); err != nil {
		stop()
		os.Exit(1)
	}
}

// newMonitor builds a monitor that prints bare lines to out and its own status
// through logger, which also writes to stderr.
func newMonitor(device string, baud int, out io.Writer, logger *log.Logger, open serialmon.Opener) *serialmon.Monitor {
	return serialmon.NewMonitor(serialmon.MonitorConfig{
		Session: serialmon.Config{Port: device, Baud: baud},
		Printer: serialmon.Printer{Out: out, Bare: true},
		Status:  logger.Writer(),
		Logger:  logger,
		Open:    open,
		Quiet:   true,
		OnConnect: func(session serialmon.Config) {
			logger.Printf("Connected to %s at %d baud", session.Port, session.Baud)
			logger.Println("Waiting for serial data...")
		},
	})
}

func run(ctx context.Context, mon *serialmon.Monitor, logger *log.Logger) error {
	if err := mon.Run(ctx); err != nil {
		var openErr *serialmon.PortOpenError
		if errors.As(err, &openErr) {
			logger.Printf("Error opening serial port: %v", openErr.Err)
		} else {
			logger.Print(err)
		}
		return err
	}
	logger.Println("Exiting...")
	return nil
}
