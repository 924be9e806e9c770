package frame

import (
	"errors"
	"sync"
)

var ErrNoData = errors.New("frame: no data buffered")

// Pipe is an in-memory duplex byte channel standing in for the UART when
// running against simulated peers or in tests.
type Pipe struct {
	a, b *PipeEnd
}

func NewPipe() *Pipe {
	left := &byteQueue{}
	right := &byteQueue{}
	p := &Pipe{
		a: &PipeEnd{in: left, out: right},
		b: &PipeEnd{in: right, out: left},
	}
	return p
}

// Ends returns the two port ends. Bytes sent on one end are received on
// the other.
func (p *Pipe) Ends() (*PipeEnd, *PipeEnd) {
	return p.a, p.b
}

// PipeEnd implements the byte port over an in-memory queue pair.
type PipeEnd struct {
	in  *byteQueue
	out *byteQueue
}

func (e *PipeEnd) SendByte(b byte) error {
	e.out.push(b)
	return nil
}

func (e *PipeEnd) HasData() bool {
	return e.in.len() > 0
}

func (e *PipeEnd) RecvByte() (byte, error) {
	b, ok := e.in.pop()
	if !ok {
		return 0, ErrNoData
	}
	return b, nil
}

type byteQueue struct {
	mu  sync.Mutex
	buf []byte
}

func (q *byteQueue) push(b byte) {
	q.mu.Lock()
	q.buf = append(q.buf, b)
	q.mu.Unlock()
}

func (q *byteQueue) pop() (byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return 0, false
	}
	b := q.buf[0]
	q.buf = q.buf[1:]
	return b, true
}

func (q *byteQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
