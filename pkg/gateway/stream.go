package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"taskpilot/gateway/pkg/providers"
)

// Fragment is one element of a streaming completion: either an incremental
// text fragment or a terminal stream error. After a Fragment with Err set,
// the channel closes.
type Fragment struct {
	Text string
	Err  error
}

// eventDecoder is the common surface of the SSE and NDJSON decoders.
type eventDecoder interface {
	Next() ([]byte, error)
}

// StreamCompletion runs a streaming completion and returns an ordered channel
// of text fragments. This is the general-purpose primitive beneath the
// polish, summary, and report workflows.
//
// Fragments are delivered in the exact order the stream decoder framed them.
// Cancelling ctx stops reading from the transport and closes the channel
// cleanly; cancellation is an observable termination, not an error. Malformed
// individual stream events are skipped, never fatal.
func (g *Gateway) StreamCompletion(ctx context.Context, settings providers.Settings, system, user string) (<-chan Fragment, error) {
	return g.Stream(ctx, settings, providers.RequestIntent{
		System: system,
		User:   user,
	})
}

// Stream is StreamCompletion with full control over the request intent,
// including prior conversation turns.
func (g *Gateway) Stream(ctx context.Context, settings providers.Settings, intent providers.RequestIntent) (<-chan Fragment, error) {
	if err := g.Validate(settings); err != nil {
		return nil, err
	}
	adapter := g.registry.Lookup(settings.Provider)

	if intent.Model == "" {
		intent.Model = settings.Model
	}
	intent.Stream = true

	payload, err := adapter.BuildPayload(intent)
	if err != nil {
		return nil, err
	}
	url, err := adapter.ChatURL(settings, true)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Only connection establishment is retried; once bytes have streamed to
	// the caller the call cannot be transparently replayed.
	var resp *http.Response
	err = g.retry.Do(ctx, func() error {
		var opErr error
		resp, opErr = g.send(ctx, adapter, settings, http.MethodPost, url, body)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	var decoder eventDecoder
	switch adapter.Framing() {
	case providers.FramingNDJSON:
		decoder = providers.NewNDJSONDecoder(resp.Body)
	default:
		decoder = providers.NewSSEDecoder(resp.Body)
	}

	fragments := make(chan Fragment, 100)
	requestID := uuid.NewString()
	start := time.Now()

	go g.pump(ctx, settings, adapter, resp.Body, decoder, fragments, requestID, start)

	return fragments, nil
}

// pump reads decoded events, extracts fragments through the adapter, and
// delivers them in framing order until the stream ends or ctx is cancelled.
func (g *Gateway) pump(ctx context.Context, settings providers.Settings, adapter providers.Adapter, body io.ReadCloser, decoder eventDecoder, fragments chan<- Fragment, requestID string, start time.Time) {
	defer close(fragments)
	defer body.Close()

	terminator, _ := adapter.(providers.Terminator)

	count := 0
	outputBytes := 0
	var streamErr error
	defer func() {
		g.observe(ctx, settings, "stream", requestID, count, outputBytes, time.Since(start), streamErr)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event, err := decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			streamErr = &providers.StreamError{
				Provider: settings.Provider,
				Message:  "failed to read stream",
				Cause:    err,
			}
			select {
			case fragments <- Fragment{Err: streamErr}:
			case <-ctx.Done():
			}
			return
		}

		// The sentinel event ends the stream; any trailing content on it is
		// deliberately discarded.
		if terminator != nil && terminator.IsTerminal(event) {
			return
		}

		delta, ok, err := adapter.ExtractDelta(event)
		if err != nil {
			// Heartbeats and partial frames decode badly on occasion; skip
			// them rather than killing the stream.
			g.logger.Debug("skipping malformed stream event",
				"provider", settings.Provider,
				"request_id", requestID,
				"error", err,
			)
			continue
		}
		if !ok {
			continue
		}

		count++
		outputBytes += len(delta)
		select {
		case fragments <- Fragment{Text: delta}:
		case <-ctx.Done():
			return
		}
	}
}
