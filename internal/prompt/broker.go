// Package prompt matches chat button presses to the engine decision that is
// waiting for them.
//
// A game's IO opens a Request naming who may answer, renders buttons whose
// callback data carries the request ID, and blocks in Wait. The callback
// handler hands each press to Resolve. A request is resolved at most once and
// answers from players who are not eligible are rejected without resolving it.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CallbackPrefix marks callback data that belongs to a prompt.
const CallbackPrefix = "pr_"

// Pass is the answer value eligible players send to decline. Once every
// eligible player has passed the request resolves with Pass.
const Pass = "pass"

var (
	ErrUnknownRequest = errors.New("this prompt is no longer active")
	ErrNotEligible    = errors.New("you cannot answer this prompt")
	ErrAlreadyPassed  = errors.New("you already passed")
	ErrTimeout        = errors.New("prompt timed out")
)

// Answer is the response that resolved a request. UserID is zero when the
// request resolved because everyone passed.
type Answer struct {
	UserID int64
	Value  string
}

// Passed reports whether the answer is a collective pass.
func (a Answer) Passed() bool {
	return a.Value == Pass
}

// Request is one pending decision.
type Request struct {
	ID       string
	eligible map[int64]bool
	passed   map[int64]bool
	answers  chan Answer
}

// Broker tracks pending requests.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*Request
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{pending: make(map[string]*Request)}
}

// Open registers a request that the given users may answer.
func (b *Broker) Open(eligible ...int64) *Request {
	req := &Request{
		ID:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		eligible: make(map[int64]bool, len(eligible)),
		passed:   make(map[int64]bool),
		answers:  make(chan Answer, 1),
	}
	for _, id := range eligible {
		req.eligible[id] = true
	}

	b.mu.Lock()
	b.pending[req.ID] = req
	b.mu.Unlock()
	return req
}

// Resolve delivers userID's answer to request id.
func (b *Broker) Resolve(id string, userID int64, value string) error {
	b.mu.Lock()
	req, ok := b.pending[id]
	if !ok {
		b.mu.Unlock()
		return ErrUnknownRequest
	}
	if !req.eligible[userID] {
		b.mu.Unlock()
		return ErrNotEligible
	}

	answer := Answer{UserID: userID, Value: value}
	if value == Pass {
		if req.passed[userID] {
			b.mu.Unlock()
			return ErrAlreadyPassed
		}
		req.passed[userID] = true
		if len(req.passed) < len(req.eligible) {
			b.mu.Unlock()
			return nil
		}
		answer = Answer{Value: Pass}
	}
	delete(b.pending, id)
	b.mu.Unlock()

	req.answers <- answer
	log.Debug().Str("request_id", id).Int64("user_id", userID).Str("value", value).Msg("Prompt resolved")
	return nil
}

// Wait blocks until req is resolved, timeout elapses (zero waits forever)
// or ctx ends. The request is closed on return.
func (b *Broker) Wait(ctx context.Context, req *Request, timeout time.Duration) (Answer, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case a := <-req.answers:
		return a, nil
	case <-expired:
		if !b.close(req.ID) {
			// Resolved while the timer fired; the answer is in flight.
			return <-req.answers, nil
		}
		return Answer{}, ErrTimeout
	case <-ctx.Done():
		b.close(req.ID)
		return Answer{}, ctx.Err()
	}
}

// Cancel drops a request that will never be waited on.
func (b *Broker) Cancel(req *Request) {
	b.close(req.ID)
}

// close removes a pending request and reports whether it was still pending.
func (b *Broker) close(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pending[id]; !ok {
		return false
	}
	delete(b.pending, id)
	return true
}

// Pending returns the number of open requests.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// EncodeCallback builds callback data answering request id with value.
func EncodeCallback(id, value string) string {
	return fmt.Sprintf("%s%s_%s", CallbackPrefix, id, value)
}

// DecodeCallback splits prompt callback data into request ID and value.
func DecodeCallback(data string) (id, value string, ok bool) {
	if !strings.HasPrefix(data, CallbackPrefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(data, CallbackPrefix), "_", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
