package serialmon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

const DefaultBaud = 115200

var ErrUsage = errors.New("usage error")

// Config identifies the port a monitoring session reads from.
type Config struct {
	Port string
	Baud int
}

// ResolveInput holds what the operator passed on the command line. Zero values mean
// "not supplied".
type ResolveInput struct {
	Port        string
	Baud        int
	DefaultPort string
}

// DefaultPort is the port tried when none is given.
func DefaultPort() string {
	if runtime.GOOS == "windows" {
		return "COM3"
	}
	return "/dev/ttyACM0"
}

// ParseArgs reads the optional positional arguments "[port] [baud]".
func ParseArgs(args []string) (ResolveInput, error) {
	var in ResolveInput
	if len(args) > 2 {
		return in, fmt.Errorf("%w: expected at most 2 arguments, got %d", ErrUsage, len(args))
	}
	if len(args) > 0 {
		in.Port = args[0]
	}
	if len(args) > 1 {
		baud, err := ParseBaud(args[1])
		if err != nil {
			return in, err
		}
		in.Baud = baud
	}
	return in, nil
}

func ParseBaud(s string) (int, error) {
	baud, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid baud rate %q", ErrUsage, s)
	}
	if baud <= 0 {
		return 0, fmt.Errorf("%w: baud rate must be positive, got %d", ErrUsage, baud)
	}
	return baud, nil
}

type Prompter interface {
	Prompt(question string) (string, error)
}

// LinePrompter asks on out and reads one line from in.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Prompt(question string) (string, error) {
	fmt.Fprint(p.out, question)
	answer, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Resolve picks the port and baud for a session. When the requested port is not
// among the discovered ones the operator is asked for a replacement, with the
// first discovered port as the fallback for an empty answer. With nothing
// discovered the requested port is kept and left for the open attempt to judge.
func Resolve(in ResolveInput, available []string, prompt Prompter) Config {
	cfg := Config{Port: in.Port, Baud: in.Baud}
	if cfg.Port == "" {
		cfg.Port = in.DefaultPort
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort()
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}

	if len(available) == 0 || slices.Contains(available, cfg.Port) {
		return cfg
	}

	question := fmt.Sprintf("\n%s not found in available ports.\nEnter COM port to use (e.g., %s): ",
		cfg.Port, available[0])
	answer, err := prompt.Prompt(question)
	if err != nil || answer == "" {
		answer = available[0]
	}
	cfg.Port = answer
	return cfg
}
