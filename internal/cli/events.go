package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream store and session events from the daemon",
		Long: `Follow the daemon's event stream. The current store and session are sent first,
then every change.

  store    player store snapshot changed
  session  initialization session changed

Press Ctrl+C to stop. With --output json each event is one JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, cmd.OutOrStdout())
		},
	}

	return cmd
}

// StreamEvent is one event received from the daemon
type StreamEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "text/event-stream")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	// no client timeout: the stream stays open until cancelled
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "connect to event stream")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("event stream: unexpected status %d", resp.StatusCode)
	}

	out := NewOutput(w, cfg.Output)
	err = readEvents(resp.Body, func(evt StreamEvent) {
		if cfg.Output == "json" {
			out.printJSONLine(evt)
			return
		}
		out.printf("[%s] %s\n", evt.Time.Format("15:04:05"), describeEvent(evt))
	})
	if err != nil && ctx.Err() == nil {
		return eris.Wrap(err, "read event stream")
	}
	return nil
}

// readEvents parses a text/event-stream body, calling fn for each complete event.
// An event is complete at its terminating blank line; one still open when the stream
// ends was cut off mid-write and is discarded, as EventSource does.
func readEvents(r io.Reader, fn func(StreamEvent)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case line == "":
			if event != "" {
				payload := strings.Join(data, "\n")
				if !json.Valid([]byte(payload)) {
					quoted, _ := json.Marshal(payload)
					payload = string(quoted)
				}
				fn(StreamEvent{Time: time.Now(), Event: event, Data: json.RawMessage(payload)})
			}
			event, data = "", nil
		}
	}
	return scanner.Err()
}

// describeEvent renders a one-line summary for text output
func describeEvent(evt StreamEvent) string {
	switch model.EventType(evt.Event) {
	case model.EventStoreChanged:
		var snap store.Snapshot
		if json.Unmarshal(evt.Data, &snap) == nil {
			if snap.Player == nil {
				return fmt.Sprintf("store: no player (game started: %t)", snap.GameStarted)
			}
			p := snap.Player
			return fmt.Sprintf("store: %s health=%d exp=%d coins=%d", p.Owner, p.Health, p.Experience, p.Coins)
		}
	case model.EventSessionChanged:
		var state initflow.State
		if json.Unmarshal(evt.Data, &state) == nil {
			s := fmt.Sprintf("session: step=%s tx=%s", state.CurrentStep, state.TxStatus)
			if state.Error != "" {
				s += " error=" + state.Error
			}
			return s
		}
	}
	return evt.Event + ": " + string(evt.Data)
}
