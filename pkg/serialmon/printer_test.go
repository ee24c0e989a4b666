package serialmon

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var stamp = time.Date(2024, 3, 1, 14, 2, 3, 456*int(time.Millisecond), time.Local)

func TestPrinterFormat(t *testing.T) {
	p := Printer{}

	assert.Equal(t, "[14:02:03.456] ERROR: <err> i2c: nack", p.Format(NewRecord([]byte("<err> i2c: nack"), stamp)))
	assert.Equal(t, "[14:02:03.456] WARN:  <wrn> low vbat", p.Format(NewRecord([]byte("<wrn> low vbat"), stamp)))
	assert.Equal(t, "[14:02:03.456] INFO:  <inf> tick", p.Format(NewRecord([]byte("<inf> tick"), stamp)))
	assert.Equal(t, "[14:02:03.456] counter=3", p.Format(NewRecord([]byte("counter=3\r"), stamp)))
}

func TestPrinterRawHasNoTimestamp(t *testing.T) {
	p := Printer{Color: true}

	assert.Equal(t, "[RAW] ff00fe", p.Format(NewRecord([]byte{0xff, 0x00, 0xfe}, stamp)))
}

func TestPrinterColor(t *testing.T) {
	p := Printer{Color: true}

	assert.Equal(t, "[14:02:03.456] \x1b[31mERROR: boom ERR\x1b[0m", p.Format(NewRecord([]byte("boom ERR"), stamp)))
	assert.Equal(t, "[14:02:03.456] \x1b[33mWARN:  WRN x\x1b[0m", p.Format(NewRecord([]byte("WRN x"), stamp)))
	assert.Equal(t, "[14:02:03.456] plain", p.Format(NewRecord([]byte("plain"), stamp)))
}

func TestPrinterBare(t *testing.T) {
	p := Printer{Bare: true}

	assert.Equal(t, "<err> fault", p.Format(NewRecord([]byte("<err> fault\r"), stamp)))
	assert.Equal(t, "[RAW] 80", p.Format(NewRecord([]byte{0x80}, stamp)))
}

func TestPrinterPrint(t *testing.T) {
	var out bytes.Buffer
	p := Printer{Out: &out}

	require.NoError(t, p.Print(NewRecord([]byte("hello"), stamp)))
	assert.Equal(t, "[14:02:03.456] hello\n", out.String())
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out, "Serial Monitor", "PCA10156")

	assert.Contains(t, out.String(), "  Serial Monitor\n  Board: PCA10156\n")

	out.Reset()
	PrintBanner(&out, "Serial Monitor", "")
	assert.NotContains(t, out.String(), "Board")
}
