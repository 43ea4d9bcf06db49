// Command probe is an interactive developer client for a running wirestate
// server. It connects over socket.io, turns stdin lines into update events,
// and prints every snapshot the server pushes back.
//
// Input lines:
//
//	name=value       send a property update (value parsed as JSON, else string)
//	!action k=v ...  call an action with the given arguments
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/vk/wirestate/internal/debounce"
	"github.com/vk/wirestate/internal/session"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

func main() {
	urlFlag := flag.String("url", "http://localhost:8089/socket.io/", "Server socket.io endpoint.")
	componentFlag := flag.String("component", "", "Component name to drive.")
	idFlag := flag.String("id", "", "Instance ID to reuse. Empty lets the server assign one.")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *componentFlag == "" {
		fmt.Fprintln(os.Stderr, "the --component flag is required")
		os.Exit(2)
	}

	if err := run(logger, *urlFlag, *componentFlag, *idFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// probe tracks the adopted instance ID across snapshots.
type probe struct {
	io        *socket.Socket
	component string
	deb       *debounce.Debouncer

	mu sync.Mutex
	id string
}

func run(logger *slog.Logger, endpoint, component, id string) error {
	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)
	defer io.Disconnect()

	p := &probe{io: io, component: component, deb: debounce.New(), id: id}
	defer p.deb.Stop()

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		connected <- errs[0].(error)
	})

	io.On(types.EventName("snapshot"), func(data ...any) {
		p.printEvent("snapshot", data)
		p.adoptID(data)
	})
	io.On(types.EventName("update_error"), func(data ...any) {
		p.printEvent("update_error", data)
	})

	io.Connect()
	if err := <-connected; err != nil {
		return fmt.Errorf("socket.io connection failed: %w", err)
	}

	// First round trip syncs the initial state and assigns an ID when we
	// did not bring one.
	p.emit(map[string]any{}, nil)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p.handleLine(logger, line)
	}
	return scanner.Err()
}

// handleLine turns one stdin line into an update or an action call.
func (p *probe) handleLine(logger *slog.Logger, line string) {
	if strings.HasPrefix(line, "!") {
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			logger.Warn("Action line has no action name.")
			return
		}
		args := make(map[string]any)
		for _, pair := range fields[1:] {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				logger.Warn("Skipping malformed action argument.", "arg", pair)
				continue
			}
			args[name] = parseValue(value)
		}
		p.emit(nil, []session.Call{{Action: fields[0], Args: args}})
		return
	}

	name, value, ok := strings.Cut(line, "=")
	if !ok {
		logger.Warn("Skipping malformed line, expected name=value or !action.", "line", line)
		return
	}

	// Coalesce rapid edits of the same field the way a browser client would.
	parsed := parseValue(value)
	p.deb.Do(name, debounce.DefaultInterval, func() {
		p.emit(map[string]any{name: parsed}, nil)
	})
}

func (p *probe) emit(updates map[string]any, calls []session.Call) {
	p.mu.Lock()
	id := p.id
	p.mu.Unlock()

	p.io.Emit("update", &session.UpdateRequest{
		Component: p.component,
		ID:        id,
		Updates:   updates,
		Calls:     calls,
	})
}

// adoptID remembers the server-assigned instance ID from the first snapshot.
func (p *probe) adoptID(data []any) {
	if len(data) == 0 {
		return
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return
	}
	var resp session.UpdateResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == "" {
		return
	}
	p.mu.Lock()
	p.id = resp.ID
	p.mu.Unlock()
}

func (p *probe) printEvent(event string, data []any) {
	var payload any
	if len(data) > 0 {
		payload = data[0]
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Printf("%s: %v\n", event, payload)
		return
	}
	fmt.Printf("%s: %s\n", event, out)
}

// parseValue interprets a value literal as JSON when possible, falling back
// to a plain string. `page=2` is a number, `search=cats` is a string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
