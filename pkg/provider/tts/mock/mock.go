// Package mock provides a test double for the tts.Provider interface.
//
// The mock reads the whole text channel before emitting SynthesizeChunks, so
// tests can inspect the fragments a caller sent once the audio channel closes.
//
// Example:
//
//	p := &mock.Provider{SynthesizeChunks: [][]byte{[]byte("audio1")}}
//	ch, _ := p.SynthesizeStream(ctx, textCh, voice)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/solace/pkg/provider/tts"
)

// SynthesizeStreamCall records a single invocation of SynthesizeStream.
type SynthesizeStreamCall struct {
	Ctx   context.Context
	Voice tts.Voice

	// Text holds the fragments read from the text channel. It is complete
	// once the returned audio channel has been closed.
	Text []string
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// SynthesizeChunks is emitted on the channel returned by SynthesizeStream.
	SynthesizeChunks [][]byte

	// SynthesizeErr, if non-nil, is returned from SynthesizeStream.
	SynthesizeErr error

	// ListVoicesResult is returned by ListVoices.
	ListVoicesResult []tts.VoiceInfo

	// ListVoicesErr, if non-nil, is returned from ListVoices.
	ListVoicesErr error

	calls           []*SynthesizeStreamCall
	listVoicesCalls int
}

// SynthesizeStream records the call, drains text and then emits
// SynthesizeChunks.
func (p *Provider) SynthesizeStream(ctx context.Context, text <-chan string, voice tts.Voice) (<-chan []byte, error) {
	call := &SynthesizeStreamCall{Ctx: ctx, Voice: voice}

	p.mu.Lock()
	p.calls = append(p.calls, call)
	if p.SynthesizeErr != nil {
		err := p.SynthesizeErr
		p.mu.Unlock()
		return nil, err
	}
	chunks := make([][]byte, len(p.SynthesizeChunks))
	copy(chunks, p.SynthesizeChunks)
	p.mu.Unlock()

	ch := make(chan []byte, len(chunks))
	go func() {
		defer close(ch)
	read:
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-text:
				if !ok {
					break read
				}
				p.mu.Lock()
				call.Text = append(call.Text, s)
				p.mu.Unlock()
			}
		}
		for _, audio := range chunks {
			select {
			case <-ctx.Done():
				return
			case ch <- audio:
			}
		}
	}()
	return ch, nil
}

// ListVoices records the call and returns ListVoicesResult, ListVoicesErr.
func (p *Provider) ListVoices(_ context.Context) ([]tts.VoiceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listVoicesCalls++
	return p.ListVoicesResult, p.ListVoicesErr
}

// SynthesizeStreamCalls returns a snapshot of the recorded calls.
func (p *Provider) SynthesizeStreamCalls() []SynthesizeStreamCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SynthesizeStreamCall, len(p.calls))
	for i, c := range p.calls {
		out[i] = *c
		out[i].Text = append([]string(nil), c.Text...)
	}
	return out
}

// ListVoicesCallCount returns how many times ListVoices was called.
func (p *Provider) ListVoicesCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listVoicesCalls
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
	p.listVoicesCalls = 0
}

var _ tts.Provider = (*Provider)(nil)
