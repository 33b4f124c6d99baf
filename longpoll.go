package vkteamsbot

import (
	"context"
	"time"
)

// PollOptions tunes the long-poll loop's batching and backoff behavior.
type PollOptions struct {
	// PollTime is the server-side long-poll duration in seconds for each
	// /events/get call. Zero uses the server default.
	PollTime int
	// MaxBatch caps how many events are delivered to Handler per dispatch call.
	// Zero uses the default of 50.
	MaxBatch int
	// MaxBatchBytes caps a batch by an approximate size heuristic (1KiB/event)
	// so a run of unusually large events doesn't balloon a single dispatch.
	// Zero uses the default of 64KiB.
	MaxBatchBytes int
	// EmptyPollBackoffStart is the initial sleep after an empty poll.
	// Zero uses the default of 500ms.
	EmptyPollBackoffStart time.Duration
	// EmptyPollBackoffMax caps the empty-poll backoff. Zero uses 10s.
	EmptyPollBackoffMax time.Duration
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MaxBatch <= 0 {
		o.MaxBatch = 50
	}
	if o.MaxBatchBytes <= 0 {
		o.MaxBatchBytes = 64 * 1024
	}
	if o.EmptyPollBackoffStart <= 0 {
		o.EmptyPollBackoffStart = 500 * time.Millisecond
	}
	if o.EmptyPollBackoffMax <= 0 {
		o.EmptyPollBackoffMax = 10 * time.Second
	}
	return o
}

const bytesPerEventHeuristic = 1024

// Handler processes one batch of events, in the order received. A non-nil
// error terminates the poll loop; Poll returns it unwrapped.
type Handler func(ctx context.Context, batch []Event) error

// Poll runs the long-poll loop until ctx is cancelled. Each successful
// /events/get call is split into batches of at most MaxBatch events (or
// MaxBatchBytes under the 1KiB-per-event size heuristic, whichever is
// smaller), with a short pause between chunks so a large burst doesn't
// monopolize the handler goroutine. Empty polls back off exponentially,
// capped at EmptyPollBackoffMax, and reset to EmptyPollBackoffStart as soon
// as an event is observed.
func (b *Bot) Poll(ctx context.Context, handler Handler, opts PollOptions) error {
	opts = opts.withDefaults()
	backoff := opts.EmptyPollBackoffStart

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		events, err := b.eventsGet(ctx, opts.PollTime)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff = nextBackoff(backoff, opts.EmptyPollBackoffMax)
			continue
		}

		if len(events) == 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff = nextBackoff(backoff, opts.EmptyPollBackoffMax)
			continue
		}
		backoff = opts.EmptyPollBackoffStart

		for _, chunk := range chunkEvents(events, opts.MaxBatch, opts.MaxBatchBytes) {
			if err := handler(ctx, chunk); err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			timer := time.NewTimer(10 * time.Millisecond)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		next = max
	}
	return next
}

// chunkEvents splits events into batches bounded by maxBatch count and
// maxBytes under the bytesPerEventHeuristic approximation.
func chunkEvents(events []Event, maxBatch, maxBytes int) [][]Event {
	maxByCount := maxBatch
	maxBySize := maxBytes / bytesPerEventHeuristic
	if maxBySize <= 0 {
		maxBySize = 1
	}
	limit := maxByCount
	if maxBySize < limit {
		limit = maxBySize
	}
	if limit <= 0 {
		limit = 1
	}

	var chunks [][]Event
	for i := 0; i < len(events); i += limit {
		end := i + limit
		if end > len(events) {
			end = len(events)
		}
		chunks = append(chunks, events[i:end])
	}
	return chunks
}
