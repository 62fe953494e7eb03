// Package notify delivers best-effort messages to admins, customers and the shop channel.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Proton-105/plantshop-bot/pkg/metrics"
)

// Action is an inline button attached to a message. Exactly one of Data and URL is set.
type Action struct {
	Text string
	Data string
	URL  string
}

// Message is a transport-neutral outgoing message.
type Message struct {
	Text    string
	PhotoID string
	Actions [][]Action
}

// Sender delivers a single message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) error
}

// Result is the outcome of one delivery.
type Result struct {
	ChatID int64
	Err    error
}

// OK reports whether the delivery succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report lists the outcome per recipient in recipient order.
type Report struct {
	Results []Result
}

// Failed returns the deliveries that did not succeed.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Delivered counts successful deliveries.
func (r Report) Delivered() int {
	return len(r.Results) - len(r.Failed())
}

// Fanout sends messages independently to each recipient; a failing recipient never blocks others.
type Fanout struct {
	sender Sender
	log    *slog.Logger
}

// NewFanout constructs a Fanout.
func NewFanout(sender Sender, log *slog.Logger) *Fanout {
	if log == nil {
		log = slog.Default()
	}
	return &Fanout{sender: sender, log: log}
}

// Broadcast delivers msg to every recipient concurrently. Duplicate recipients receive one message.
func (f *Fanout) Broadcast(ctx context.Context, audience string, recipients []int64, msg Message) Report {
	unique := dedupe(recipients)
	report := Report{Results: make([]Result, len(unique))}

	var wg sync.WaitGroup
	for i, chatID := range unique {
		wg.Add(1)
		go func(i int, chatID int64) {
			defer wg.Done()
			report.Results[i] = f.deliver(ctx, audience, chatID, msg)
		}(i, chatID)
	}
	wg.Wait()

	if failed := report.Failed(); len(failed) > 0 {
		f.log.Warn("broadcast partially failed",
			slog.String("audience", audience),
			slog.Int("recipients", len(unique)),
			slog.Int("failed", len(failed)),
		)
	}

	return report
}

// Notify delivers msg to a single chat.
func (f *Fanout) Notify(ctx context.Context, audience string, chatID int64, msg Message) Result {
	return f.deliver(ctx, audience, chatID, msg)
}

func (f *Fanout) deliver(ctx context.Context, audience string, chatID int64, msg Message) Result {
	err := f.sender.Send(ctx, chatID, msg)
	metrics.RecordNotification(audience, err)
	if err != nil {
		f.log.Warn("notification not delivered",
			slog.String("audience", audience),
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
	}
	return Result{ChatID: chatID, Err: err}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
