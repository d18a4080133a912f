package fairchat

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/fairlink/fairchat-sdk-go/fairchat/internal"

	"github.com/coder/websocket"
)

// Client provides the real-time chat connection for a career-fair session.
// It holds at most one live connection; Connect while one is held is a no-op.
type Client struct {
	cfg        Config
	logger     Logger
	dispatcher dispatcher

	mu       sync.Mutex
	state    ConnectionState
	identity Identity
	conn     *internal.Conn
	writeCh  chan emitFrame
	cancel   context.CancelFunc
}

// NewClient constructs a client with provided config.
// Use DefaultConfig() as a starting point and modify as needed.
// Set timeouts to 0 to disable them.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: noopLogger{},
		state:  StateUnconnected,
	}
}

// SetLogger overrides logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// OnMessage registers a handler for inbound chat messages and returns an
// unsubscribe func. Registrations accumulate; a remounting component should
// call the unsubscribe func instead of registering twice.
func (c *Client) OnMessage(fn func(MessageEvent)) func() { return c.dispatcher.subscribeMessage(fn) }

// OnMessageSent registers a handler for server send confirmations.
func (c *Client) OnMessageSent(fn func(MessageEvent)) func() { return c.dispatcher.subscribeSent(fn) }

// OnTyping registers a handler for counterpart typing notifications.
func (c *Client) OnTyping(fn func(TypingEvent)) func() { return c.dispatcher.subscribeTyping(fn) }

// OnStopTyping registers a handler for counterpart stop-typing notifications.
func (c *Client) OnStopTyping(fn func(TypingEvent)) func() {
	return c.dispatcher.subscribeStopTyping(fn)
}

// OnVisitor registers a handler for booth visitor notifications.
func (c *Client) OnVisitor(fn func(VisitorEvent)) func() { return c.dispatcher.subscribeVisitor(fn) }

// OnError registers a handler for transport and protocol errors.
func (c *Client) OnError(fn func(error)) func() { return c.dispatcher.subscribeError(fn) }

// Connect dials the server with the session credential, joins the user's
// room once the transport is up, and starts internal loops. Calling Connect
// while a connection is held is a no-op: one session keeps exactly one
// connection and emits exactly one join_room.
func (c *Client) Connect(ctx context.Context, identity Identity) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		c.logger.Debug("connect skipped: connection already held", map[string]any{"user": identity.UserID})
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateUnconnected
		c.mu.Unlock()
		c.logger.Error("connect failed", map[string]any{"error": err.Error()})
		return WrapError(ErrorConnection, "connect", err)
	}

	// Room join happens strictly after the transport reports connected and
	// before any queued emission.
	join := emitFrame{Event: eventJoinRoom, Data: identity.UserID}
	if err := conn.Write(ctx, join); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "handshake error")
		c.mu.Lock()
		c.state = StateUnconnected
		c.mu.Unlock()
		return WrapError(ErrorConnection, "join room", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	writeCh := make(chan emitFrame, 16)

	c.mu.Lock()
	c.conn = conn
	c.writeCh = writeCh
	c.cancel = cancel
	c.identity = identity
	c.state = StateConnected
	c.mu.Unlock()

	c.logger.Info("connected", map[string]any{"user": identity.UserID})

	go c.readLoop(runCtx, conn)
	go c.writeLoop(runCtx, conn, writeCh)
	return nil
}

func (c *Client) dial(ctx context.Context) (*internal.Conn, error) {
	if c.cfg.URL == "" {
		return nil, NewError(ErrorInvalidConfig, "empty URL")
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	var opts *websocket.DialOptions
	if c.cfg.Token != "" {
		opts = &websocket.DialOptions{
			HTTPHeader: http.Header{"Authorization": []string{"Bearer " + c.cfg.Token}},
		}
	}
	ws, _, err := websocket.Dial(dialCtx, u.String(), opts)
	if err != nil {
		return nil, err
	}
	return internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout), nil
}

// Close tears the connection down and clears the held reference. Safe to
// call when no connection exists.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	user := c.identity.UserID
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.conn = nil
	c.writeCh = nil
	if conn != nil {
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.logger.Info("disconnected", map[string]any{"user": user})
	if err := conn.CloseNow(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// State reports the connection lifecycle state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether a live connection is held.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// Identity returns the identity the current connection was established with.
func (c *Client) Identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// JoinRoom re-emits the room join for the held identity.
func (c *Client) JoinRoom(ctx context.Context) error {
	return c.emit(ctx, emitFrame{Event: eventJoinRoom, Data: c.Identity().UserID})
}

// SendMessage emits an outbound chat message. Fire-and-forget: no delivery
// result, and a no-op when no connection is held.
func (c *Client) SendMessage(ctx context.Context, senderID, receiverID, message string) error {
	return c.emit(ctx, emitFrame{Event: eventSend, Data: MessagePayload{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
	}})
}

// NotifyTyping signals the counterpart that this user started typing.
func (c *Client) NotifyTyping(ctx context.Context, senderID, receiverID string) error {
	return c.emit(ctx, emitFrame{Event: eventTyping, Data: TypingPayload{
		SenderID:   senderID,
		ReceiverID: receiverID,
	}})
}

// NotifyStopTyping signals the counterpart that this user stopped typing.
func (c *Client) NotifyStopTyping(ctx context.Context, senderID, receiverID string) error {
	return c.emit(ctx, emitFrame{Event: eventStopTyping, Data: TypingPayload{
		SenderID:   senderID,
		ReceiverID: receiverID,
	}})
}

// NotifyBoothVisit announces a student arriving at a company booth.
func (c *Client) NotifyBoothVisit(ctx context.Context, companyID, studentName string) error {
	return c.emit(ctx, emitFrame{Event: eventBoothVisit, Data: BoothVisitPayload{
		CompanyID:   companyID,
		StudentName: studentName,
	}})
}

// emit queues a frame for the write loop. Emission order on one connection
// is the enqueue order. Without a connection the frame is dropped silently;
// the chat surface must never escalate into an application error.
func (c *Client) emit(ctx context.Context, fr emitFrame) error {
	c.mu.Lock()
	writeCh := c.writeCh
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || writeCh == nil {
		c.logger.Debug("emit dropped", map[string]any{
			"event": fr.Event,
			"error": NewError(ErrorNotConnected, "no connection held").Error(),
		})
		return nil
	}

	select {
	case writeCh <- fr:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) readLoop(ctx context.Context, conn *internal.Conn) {
	for {
		var fr recvFrame
		if err := conn.Read(ctx, &fr); err != nil {
			if isExpectedDisconnect(ctx, err) {
				c.markDisconnected()
				return
			}
			c.dispatcher.fireError(classifyTransportError("read", err))
			c.logger.Warn("read loop exit", map[string]any{"error": err.Error()})
			c.markDisconnected()
			return
		}
		c.dispatcher.dispatch(fr)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *internal.Conn, writeCh chan emitFrame) {
	for {
		select {
		case fr := <-writeCh:
			if err := conn.Write(ctx, fr); err != nil {
				c.dispatcher.fireError(classifyTransportError("write", err))
				c.logger.Warn("write loop exit", map[string]any{"error": err.Error()})
				// End the connection instance here too; waiting for the
				// read side to notice would leave a window where emit
				// still queues into a dead loop.
				c.markDisconnected()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// markDisconnected ends the current connection instance after a transport
// failure. Cancelling the run context here releases both loops; without it
// a remote drop would leave the write loop parked forever and a later
// Connect would overwrite its cancel func.
func (c *Client) markDisconnected() {
	c.mu.Lock()
	var cancel context.CancelFunc
	if c.state == StateConnected || c.state == StateConnecting {
		c.state = StateDisconnected
		c.conn = nil
		c.writeCh = nil
		cancel = c.cancel
		c.cancel = nil
	}
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// classifyTransportError maps a loop failure to its error code: deadline
// errors to timeout, peer close frames to disconnected, anything else to a
// generic connection error.
func classifyTransportError(op string, err error) *ChatError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return WrapError(ErrorTimeout, op+" timed out", err)
	case websocket.CloseStatus(err) != -1:
		return WrapError(ErrorDisconnected, "connection closed during "+op, err)
	default:
		return WrapError(ErrorConnection, op, err)
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
