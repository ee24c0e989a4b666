package serialmon

import (
	"errors"
)

// fakePort hands out scripted chunks, one chunk per Read call.
type fakePort struct {
	chunks    [][]byte
	readyErrs []error
	closed    int
	reads     int
	polls     int
	drained   int
	closeErr  error
	// onDrained runs when a poll finds nothing left to read.
	onDrained func()
}

func newFakePort(chunks ...string) *fakePort {
	p := &fakePort{}
	for _, c := range chunks {
		p.chunks = append(p.chunks, []byte(c))
	}
	return p
}

func (p *fakePort) ReadyToRead() (uint32, error) {
	p.polls++
	if len(p.readyErrs) > 0 {
		err := p.readyErrs[0]
		p.readyErrs = p.readyErrs[1:]
		return 0, err
	}
	if len(p.chunks) == 0 {
		p.drained++
		if p.onDrained != nil {
			p.onDrained()
		}
		return 0, nil
	}
	return uint32(len(p.chunks[0])), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.reads++
	if len(p.chunks) == 0 {
		return 0, nil
	}
	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Close() error {
	p.closed++
	if p.closeErr != nil {
		return p.closeErr
	}
	if p.closed > 1 {
		return errors.New("already closed")
	}
	return nil
}
