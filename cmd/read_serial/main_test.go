package main

import (
	"bytes"
	"context"
	"dancavallaro.com/serialmon/pkg/serialmon"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log"
	"strings"
	"testing"
)

// linePort serves one payload and then cancels the run once it is drained.
type linePort struct {
	data   []byte
	cancel context.CancelFunc
	closed int
}

func (p *linePort) ReadyToRead() (uint32, error) {
	if len(p.data) == 0 {
		p.cancel()
	}
	return uint32(len(p.data)), nil
}

func (p *linePort) Read(b []byte) (int, error) {
	n := copy(b, p.data)
	p.data = p.data[n:]
	return n, nil
}

func (p *linePort) Close() error {
	p.closed++
	return nil
}

func TestRunReportsConnectAndExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	port := &linePort{data: []byte("<inf> hello\r\n"), cancel: cancel}

	var out, logs bytes.Buffer
	logger := log.New(&logs, "[read_serial] ", 0)
	mon := newMonitor("/dev/ttyUSB0", 9600, &out, logger, func(device string, baud int) (serialmon.Port, error) {
		return port, nil
	})

	require.NoError(t, run(ctx, mon, logger))
	assert.Equal(t, "<inf> hello\n", out.String())
	assert.Equal(t, 1, port.closed)

	status := logs.String()
	assert.True(t, strings.HasPrefix(status, "[read_serial] Connected to /dev/ttyUSB0 at 9600 baud\n"+
		"[read_serial] Waiting for serial data...\n"))
	assert.True(t, strings.HasSuffix(status, "Port closed.\n[read_serial] Exiting...\n"))
}

func TestRunReportsOpenFailure(t *testing.T) {
	var out, logs bytes.Buffer
	logger := log.New(&logs, "[read_serial] ", 0)
	mon := newMonitor("/dev/ttyUSB0", 9600, &out, logger, func(device string, baud int) (serialmon.Port, error) {
		return nil, errors.New("no such file or directory")
	})

	err := run(context.Background(), mon, logger)

	var openErr *serialmon.PortOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "[read_serial] Error opening serial port: no such file or directory\n", logs.String())
	assert.NotContains(t, logs.String(), "Connected")
	assert.Empty(t, out.String())
}
