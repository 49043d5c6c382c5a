// Package inject provides injectable test doubles for hardware handles.
package inject

import (
	"io"
	"sync"
)

// Port is an injectable serial port. Writes that are not handled by WriteFunc are recorded.
type Port struct {
	ReadFunc  func(p []byte) (int, error)
	WriteFunc func(p []byte) (int, error)
	CloseFunc func() error

	mu     sync.Mutex
	writes [][]byte
	closes int
}

// Read calls the injected function or returns io.EOF.
func (p *Port) Read(b []byte) (int, error) {
	if p.ReadFunc == nil {
		return 0, io.EOF
	}
	return p.ReadFunc(b)
}

// Write calls the injected function or records a copy of b.
func (p *Port) Write(b []byte) (int, error) {
	if p.WriteFunc != nil {
		return p.WriteFunc(b)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, append([]byte(nil), b...))
	return len(b), nil
}

// Close calls the injected function and counts the call.
func (p *Port) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	if p.CloseFunc == nil {
		return nil
	}
	return p.CloseFunc()
}

// Writes returns the recorded writes as strings.
func (p *Port) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.writes))
	for _, w := range p.writes {
		out = append(out, string(w))
	}
	return out
}

// Closes returns how many times Close was called.
func (p *Port) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}
