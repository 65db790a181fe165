package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avenz/sandwich-monitor/internal/gateway"
	"github.com/avenz/sandwich-monitor/internal/metrics"
	"github.com/avenz/sandwich-monitor/internal/model"
)

// Sink receives validated events.
type Sink interface {
	Append(ctx context.Context, ev model.SandwichEvent) (bool, error)
}

// Gateway is the instant-query surface used for fallback polling.
type Gateway interface {
	Instant(ctx context.Context, expr string) (gateway.Sample, bool, error)
}

// Client owns the push-channel connection lifecycle. Construction has no
// side effects; nothing happens until Start.
type Client struct {
	cfg    Config
	sink   Sink
	gw     Gateway
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	state   State
	cancel  context.CancelFunc

	wg     sync.WaitGroup
	events chan sockEvent

	// Owned by the run goroutine.
	conn       *websocket.Conn
	gen        uint64
	attempts   int
	usePrimary bool

	reconnectTimer *time.Timer
	reconnectC     <-chan time.Time
	pollTicker     *time.Ticker
	pollC          <-chan time.Time
	periodicTicker *time.Ticker
	periodicC      <-chan time.Time

	// Idempotence counters for the fallback timers.
	pollStarts     int
	periodicStarts int
}

// NewClient creates a feed client.
func NewClient(cfg Config, sink Sink, gw Gateway, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		sink:       sink,
		gw:         gw,
		logger:     logger,
		state:      StateConnecting,
		usePrimary: true,
	}
}

// Start opens a connection to the primary endpoint. Idempotent: a second
// Start while running is a no-op.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.started = true
	c.state = StateConnecting

	ctx, c.cancel = context.WithCancel(ctx)
	c.events = make(chan sockEvent, 64)
	c.usePrimary = true
	c.attempts = 0

	c.wg.Add(1)
	go c.run(ctx)

	c.logger.Info("feed client started", "primary", c.cfg.PrimaryURL)
	return nil
}

// Stop cancels every pending timer, detaches the socket, and waits for the
// run loop. No timer or socket callback fires after Stop returns; events
// from the torn-down socket are discarded.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("feed client stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// run is the single-threaded event loop. Every transition — socket event,
// reconnect timer, fallback poll tick, periodic reconnect tick — runs to
// completion here before the next one is taken.
func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()
	defer c.teardown()

	c.dial(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-c.events:
			if ev.gen != c.gen {
				// Superseded socket; its callbacks are detached.
				continue
			}
			switch ev.kind {
			case evMessage:
				c.handleMessage(ctx, ev.data)
			case evError:
				c.logger.Warn("feed transport error", "error", ev.err)
				c.fallbackPoll(ctx)
			case evClosed:
				c.handleClose(ctx, ev.code)
			}

		case <-c.reconnectC:
			c.reconnectTimer = nil
			c.reconnectC = nil
			c.dial(ctx)

		case <-c.pollC:
			c.fallbackPoll(ctx)

		case <-c.periodicC:
			// Full reconnect cycle: reset the budget, retry primary.
			c.attempts = 0
			c.usePrimary = true
			c.logger.Info("periodic reconnect attempt")
			c.dial(ctx)
		}
	}
}

// dial opens a new socket to the current target, superseding any prior
// one. A dial failure classifies as an abnormal close.
func (c *Client) dial(ctx context.Context) {
	c.closeConn()
	c.gen++
	c.setState(StateConnecting)

	target := c.cfg.PrimaryURL
	if !c.usePrimary {
		target = c.cfg.SecondaryURL
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("feed dial failed", "url", target, "error", err)
		c.handleClose(ctx, websocket.CloseAbnormalClosure)
		return
	}

	c.conn = conn
	c.setState(StateOpen)
	c.attempts = 0
	c.stopReconnectTimer()
	c.stopFallbackTimers()

	c.logger.Info("feed connected", "url", target)

	c.wg.Add(1)
	go c.readLoop(ctx, conn, c.gen)
}

// readLoop drains one socket and forwards its events, tagged with the
// socket generation.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, gen uint64) {
	defer c.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				c.send(ctx, sockEvent{gen: gen, kind: evClosed, code: closeErr.Code})
			} else {
				// Transport error without a close frame: the error event
				// triggers an immediate poll, then the close classifies
				// as abnormal.
				c.send(ctx, sockEvent{gen: gen, kind: evError, err: err})
				c.send(ctx, sockEvent{gen: gen, kind: evClosed, code: websocket.CloseAbnormalClosure})
			}
			return
		}
		c.send(ctx, sockEvent{gen: gen, kind: evMessage, data: data})
	}
}

func (c *Client) send(ctx context.Context, ev sockEvent) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// handleMessage parses one push-channel frame. Malformed frames are
// dropped with a diagnostic, never propagated.
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	ev, err := model.ParseFeedMessage(data)
	if err != nil {
		metrics.EventsMalformed.WithLabelValues("feed").Inc()
		c.logger.Warn("dropping malformed feed message", "error", err)
		return
	}
	c.submit(ctx, ev, "feed")
}

// handleClose classifies the close code and applies the reconnect policy.
func (c *Client) handleClose(ctx context.Context, code int) {
	c.closeConn()

	if isNormalClose(code) {
		c.setState(StateClosedNormal)
		c.logger.Info("feed closed normally", "code", code)
		return
	}

	c.setState(StateClosedAbnormal)

	// The close that spends the last attempt switches to fallback; with a
	// budget of N, the N-th consecutive abnormal close lands there.
	c.attempts++
	c.logger.Warn("feed closed abnormally", "code", code, "attempts", c.attempts)

	if c.attempts < c.cfg.MaxAttempts {
		c.usePrimary = !c.usePrimary
		metrics.FeedReconnects.Inc()

		c.stopReconnectTimer()
		c.reconnectTimer = time.NewTimer(c.cfg.ReconnectDelay)
		c.reconnectC = c.reconnectTimer.C

		c.logger.Info("reconnect scheduled",
			"attempt", c.attempts,
			"max", c.cfg.MaxAttempts,
			"delay", c.cfg.ReconnectDelay,
			"primary", c.usePrimary,
		)

		c.fallbackPoll(ctx)
		return
	}

	c.enterFallback()
}

// enterFallback switches to durable fallback polling. Both timers are
// started at most once; re-entering while already polling is a no-op.
func (c *Client) enterFallback() {
	c.setState(StateFallbackPolling)

	if c.pollTicker == nil {
		c.pollTicker = time.NewTicker(c.cfg.FallbackInterval)
		c.pollC = c.pollTicker.C
		c.pollStarts++
		c.logger.Warn("reconnect attempts exhausted, entering fallback polling",
			"interval", c.cfg.FallbackInterval)
	}
	if c.periodicTicker == nil {
		c.periodicTicker = time.NewTicker(c.cfg.PeriodicReconnect)
		c.periodicC = c.periodicTicker.C
		c.periodicStarts++
	}
}

// fallbackPoll issues one instant query for the last event and submits the
// decoded payload. Malformed payloads are dropped with a diagnostic.
func (c *Client) fallbackPoll(ctx context.Context) {
	metrics.FallbackPolls.Inc()

	sample, ok, err := c.gw.Instant(ctx, gateway.QueryLastEvent)
	if err != nil {
		metrics.QueryFailures.WithLabelValues("last_event").Inc()
		c.logger.Warn("fallback poll failed", "error", err)
		return
	}
	if !ok {
		c.logger.Debug("fallback poll returned no value")
		return
	}

	payload := sample.Labels[gateway.LastEventPayloadLabel]
	var ev model.SandwichEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		metrics.EventsMalformed.WithLabelValues("fallback").Inc()
		c.logger.Warn("dropping malformed fallback payload", "error", err)
		return
	}
	if err := ev.Validate(); err != nil {
		metrics.EventsMalformed.WithLabelValues("fallback").Inc()
		c.logger.Warn("dropping invalid fallback event", "error", err)
		return
	}

	c.submit(ctx, ev, "fallback")
}

func (c *Client) submit(ctx context.Context, ev model.SandwichEvent, source string) {
	appended, err := c.sink.Append(ctx, ev)
	if err != nil {
		c.logger.Warn("event rejected by store", "slot", ev.Slot, "error", err)
		return
	}
	if appended {
		metrics.EventsIngested.WithLabelValues(source).Inc()
		c.logger.Debug("event ingested",
			"slot", ev.Slot,
			"mint", ev.Mint,
			"sol_change", ev.SolChange,
			"source", source,
		)
	}
}

func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.conn.Close()
	c.conn = nil
}

func (c *Client) stopReconnectTimer() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
		c.reconnectC = nil
	}
}

func (c *Client) stopFallbackTimers() {
	if c.pollTicker != nil {
		c.pollTicker.Stop()
		c.pollTicker = nil
		c.pollC = nil
	}
	if c.periodicTicker != nil {
		c.periodicTicker.Stop()
		c.periodicTicker = nil
		c.periodicC = nil
	}
}

// teardown runs when the run loop exits. Bumping the generation detaches
// any still-running reader.
func (c *Client) teardown() {
	c.gen++
	c.stopReconnectTimer()
	c.stopFallbackTimers()
	c.closeConn()
}
