package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/muesli/cancelreader"
)

// KeyReader reads runes from a terminal on its own goroutine. Close cancels
// a read that is blocked waiting for input.
type KeyReader struct {
	r       cancelreader.CancelReader
	keys    chan rune
	done    chan struct{}
	stopped chan struct{}
	err     error
	once    sync.Once
}

func NewKeyReader(in io.Reader) (*KeyReader, error) {
	cr, err := cancelreader.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard input: %w", err)
	}
	k := &KeyReader{
		r:       cr,
		keys:    make(chan rune, 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go k.readLoop()
	return k, nil
}

func (k *KeyReader) Keys() <-chan rune { return k.keys }

// Err is only meaningful once the Keys channel has been closed.
func (k *KeyReader) Err() error { return k.err }

func (k *KeyReader) readLoop() {
	defer close(k.stopped)
	defer close(k.keys)

	br := bufio.NewReader(k.r)
	for {
		r, _, err := br.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, cancelreader.ErrCanceled) {
				k.err = err
			}
			return
		}
		select {
		case k.keys <- r:
		case <-k.done:
			return
		}
	}
}

// Close stops the read loop. When the underlying reader supports
// cancellation it waits for the loop to exit before releasing it.
func (k *KeyReader) Close() error {
	var err error
	k.once.Do(func() {
		close(k.done)
		if k.r.Cancel() {
			<-k.stopped
		}
		err = k.r.Close()
	})
	return err
}
