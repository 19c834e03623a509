package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"PairStream/internal/domain/models"
	drepo "PairStream/internal/domain/repository"
)

// Client implements a MarketStream over the Binance trade WebSocket.
// Symbols are subscribed as <symbol>@trade streams on a single connection.
type Client struct {
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	subID     int
}

// New creates a Binance MarketStream for the given symbols.
func New(websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Client{
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection. A read deadline bounds every
// read; pongs from the peer push it forward, so a silently dead transport
// surfaces as a read error instead of blocking forever.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	wait := c.readWait()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	log.Printf("binance: connected")
	return nil
}

// readWait is how long a read may block without a pong before the connection
// is considered dead.
func (c *Client) readWait() time.Duration {
	if c.pingInterval <= 0 {
		return time.Minute
	}
	return 3 * c.pingInterval
}

// Subscribe subscribes to the trade stream of every configured symbol.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		params = append(params, strings.ToLower(s)+"@trade")
	}
	c.subID++
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     c.subID,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("binance: subscribed %s", strings.Join(params, " "))
	return nil
}

// AddSymbol subscribes one more trade stream on the live connection. The
// grown set persists in c.symbols, so Subscribe replays it after reconnects.
func (c *Client) AddSymbol(ctx context.Context, symbol string) error {
	symbol = strings.ToLower(symbol)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.symbols {
		if strings.ToLower(s) == symbol {
			return nil
		}
	}
	if c.conn == nil || !c.connected {
		return fmt.Errorf("binance not connected")
	}
	c.subID++
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{symbol + "@trade"},
		"id":     c.subID,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", symbol, err)
	}
	c.symbols = append(c.symbols, symbol)
	log.Printf("binance: subscribed %s@trade", symbol)
	return nil
}

// Symbols returns the current subscription set.
func (c *Client) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.symbols))
	for i, s := range c.symbols {
		out[i] = strings.ToLower(s)
	}
	return out
}

// trade event; price and quantity arrive as decimal strings
type bnTrade struct {
	Event    string `json:"e"`
	Symbol   string `json:"s"`
	Price    string `json:"p"`
	Quantity string `json:"q"`
	TradeTS  int64  `json:"T"` // ms
}

type bnEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// Read streams normalized ticks and errors. The tick channel is buffered;
// on backpressure frames are dropped rather than stalling the socket.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.conn != nil {
					_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				}
				c.mu.Unlock()
			}
		}
	}()

	// read loop
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				select {
				case errs <- fmt.Errorf("binance conn nil"):
				default:
				}
				time.Sleep(c.reconnectDelay)
				continue
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				select {
				case errs <- fmt.Errorf("binance read: %w", err):
				default:
				}
				// wait for the owner to reconnect before reading again
				time.Sleep(c.reconnectDelay)
				continue
			}
			// any frame proves the peer is alive
			_ = conn.SetReadDeadline(time.Now().Add(c.readWait()))

			t, ok := parseTrade(b)
			if !ok {
				continue
			}
			select {
			case ticks <- t:
			default:
				// drop on backpressure
			}
		}
	}()

	return ticks, errs
}

// parseTrade decodes either a raw trade event or a combined-stream envelope.
func parseTrade(b []byte) (*models.Tick, bool) {
	payload := b
	var env bnEnvelope
	if err := json.Unmarshal(b, &env); err == nil && len(env.Data) > 0 {
		payload = env.Data
	}

	var tr bnTrade
	if err := json.Unmarshal(payload, &tr); err != nil {
		return nil, false
	}
	if tr.Event != "trade" {
		return nil, false
	}
	price, err := strconv.ParseFloat(tr.Price, 64)
	if err != nil {
		return nil, false
	}
	qty, err := strconv.ParseFloat(tr.Quantity, 64)
	if err != nil {
		return nil, false
	}
	return &models.Tick{
		Symbol:    strings.ToLower(tr.Symbol),
		Timestamp: time.UnixMilli(tr.TradeTS).UTC(),
		Price:     price,
		Size:      qty,
	}, true
}

// Reconnect closes, waits, reconnects, and resubscribes.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
