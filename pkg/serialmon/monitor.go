// Package serialmon reads newline-terminated text from a serial port and prints it
// with timestamps and severity labels.
package serialmon

import (
	"context"
	"fmt"
	"github.com/albenik/go-serial/v2"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// readTimeoutMillis bounds a single read call, not the connection.
const readTimeoutMillis = 100

const DefaultPollInterval = 10 * time.Millisecond

type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

// Sink receives every printed record, after the console has it.
type Sink interface {
	Handle(rec Record)
}

type Opener func(device string, baud int) (Port, error)

// OpenPort opens a real serial device.
func OpenPort(device string, baud int) (Port, error) {
	port, err := serial.Open(
		device,
		serial.WithBaudrate(baud),
		serial.WithReadTimeout(readTimeoutMillis),
		serial.WithWriteTimeout(readTimeoutMillis),
	)
	if err != nil {
		return nil, err
	}
	return port, nil
}

type PortOpenError struct {
	Port string
	Baud int
	Err  error
}

func (e *PortOpenError) Error() string {
	return fmt.Sprintf("cannot open %s at %d baud: %v", e.Port, e.Baud, e.Err)
}

func (e *PortOpenError) Unwrap() error {
	return e.Err
}

// ReportOpenError prints the failure with the usual suspects.
func ReportOpenError(w io.Writer, err *PortOpenError) {
	fmt.Fprintf(w, "\nERROR: Cannot open %s\n", err.Port)
	fmt.Fprintf(w, "Details: %v\n", err.Err)
	fmt.Fprintln(w, "\nPossible causes:")
	fmt.Fprintln(w, "  1. Port is in use by another program")
	fmt.Fprintln(w, "  2. Port doesn't exist")
	fmt.Fprintln(w, "  3. No permission to access port")
}

type MonitorConfig struct {
	Session Config
	Printer Printer
	// Status receives connection and shutdown messages. Defaults to Printer.Out.
	Status io.Writer
	// Logger reports transient read errors. Defaults to a plain logger on Status.
	Logger       Logger
	Open         Opener
	PollInterval time.Duration
	// KeepEmpty prints lines that are empty after trimming instead of dropping them.
	KeepEmpty bool
	// Quiet suppresses the connection banner.
	Quiet bool
	// OnConnect runs once the port is open, before the first poll.
	OnConnect func(session Config)
	// PartialTimeout is how long an unterminated tail may sit idle before it is
	// printed as a line. Defaults to the port read timeout.
	PartialTimeout time.Duration
	Sinks          []Sink
	Now            func() time.Time
}

type Monitor struct {
	session        Config
	printer        Printer
	status         io.Writer
	logger         Logger
	open           Opener
	pollInterval   time.Duration
	keepEmpty      bool
	quiet          bool
	onConnect      func(session Config)
	partialTimeout time.Duration
	sinks          []Sink
	now            func() time.Time
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	m := &Monitor{
		session:        cfg.Session,
		printer:        cfg.Printer,
		status:         cfg.Status,
		logger:         cfg.Logger,
		open:           cfg.Open,
		pollInterval:   cfg.PollInterval,
		keepEmpty:      cfg.KeepEmpty,
		quiet:          cfg.Quiet,
		onConnect:      cfg.OnConnect,
		partialTimeout: cfg.PartialTimeout,
		sinks:          cfg.Sinks,
		now:            cfg.Now,
	}
	if m.printer.Out == nil {
		m.printer.Out = os.Stdout
	}
	if m.status == nil {
		m.status = m.printer.Out
	}
	if m.logger == nil {
		m.logger = log.New(m.status, "", 0)
	}
	if m.open == nil {
		m.open = OpenPort
	}
	if m.pollInterval <= 0 {
		m.pollInterval = DefaultPollInterval
	}
	if m.partialTimeout <= 0 {
		m.partialTimeout = readTimeoutMillis * time.Millisecond
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Run opens the session's port and prints lines until ctx is cancelled. The only
// error it returns is *PortOpenError; cancellation is a normal exit and read
// errors are logged and survived. A tail without a terminator is printed once it
// has been idle for the partial timeout, and again on exit before the port is
// released.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.quiet {
		fmt.Fprintf(m.status, "\nConnecting to %s at %d baud...\n", m.session.Port, m.session.Baud)
	}
	port, err := m.open(m.session.Port, m.session.Baud)
	if err != nil {
		return &PortOpenError{Port: m.session.Port, Baud: m.session.Baud, Err: err}
	}
	defer m.release(port)

	if !m.quiet {
		fmt.Fprintln(m.status, "Connected successfully!")
		fmt.Fprintln(m.status, "Press Ctrl+C to stop")
		fmt.Fprintln(m.status)
		fmt.Fprintln(m.status, strings.Repeat("-", 40))
	}
	if m.onConnect != nil {
		m.onConnect(m.session)
	}

	lines := NewLineReader(port)
	var idle time.Duration
	for {
		if ctx.Err() != nil {
			m.flush(lines)
			fmt.Fprintln(m.status, "\n\nStopping monitor...")
			return nil
		}
		read, err := m.poll(ctx, lines)
		if err != nil {
			m.logger.Printf("Read error: %v", err)
		}
		switch {
		case read || !lines.Pending():
			idle = 0
		default:
			idle += m.pollInterval
			if idle >= m.partialTimeout {
				m.flush(lines)
				idle = 0
			}
		}

		select {
		case <-ctx.Done():
		case <-time.After(m.pollInterval):
		}
	}
}

// poll emits every complete line it can get and reports whether the port
// produced new bytes.
func (m *Monitor) poll(ctx context.Context, lines *LineReader) (bool, error) {
	read := false
	if !lines.Buffered() {
		ready, err := lines.Available()
		if err != nil {
			return false, err
		}
		if ready == 0 {
			return false, nil
		}
		read = true
		if err := lines.Fill(); err != nil {
			return read, err
		}
	}
	for ctx.Err() == nil {
		raw, ok := lines.Next()
		if !ok {
			break
		}
		m.emit(NewRecord(raw, m.now()))
	}
	return read, nil
}

// flush prints whatever is still buffered, including a tail with no terminator.
func (m *Monitor) flush(lines *LineReader) {
	for {
		raw, ok := lines.Flush()
		if !ok {
			return
		}
		m.emit(NewRecord(raw, m.now()))
	}
}

func (m *Monitor) emit(rec Record) {
	if rec.Empty() && !m.keepEmpty {
		return
	}
	if err := m.printer.Print(rec); err != nil {
		m.logger.Printf("Print error: %v", err)
	}
	for _, sink := range m.sinks {
		sink.Handle(rec)
	}
}

func (m *Monitor) release(port Port) {
	if err := port.Close(); err != nil {
		fmt.Fprintf(m.status, "Port close failed: %v\n", err)
		return
	}
	fmt.Fprintln(m.status, "Port closed.")
}
