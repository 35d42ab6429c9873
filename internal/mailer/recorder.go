package mailer

import (
	"context"
	"sync"
)

// Recorder is an in-memory Sender for tests. FailFor can force transport
// failures for chosen To addresses.
type Recorder struct {
	mu      sync.Mutex
	Sent    []Message
	FailFor map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{FailFor: make(map[string]error)}
}

func (r *Recorder) Send(ctx context.Context, m *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, to := range m.To {
		if err, ok := r.FailFor[to]; ok {
			return err
		}
	}
	cp := *m
	cp.To = append([]string(nil), m.To...)
	cp.CC = append([]string(nil), m.CC...)
	cp.Attachments = append([]Attachment(nil), m.Attachments...)
	r.Sent = append(r.Sent, cp)
	return nil
}

func (r *Recorder) Verify(ctx context.Context) error { return nil }
func (r *Recorder) Close() error                     { return nil }

// SentTo returns the messages whose To line contains addr.
func (r *Recorder) SentTo(addr string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.Sent {
		for _, to := range m.To {
			if to == addr {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
