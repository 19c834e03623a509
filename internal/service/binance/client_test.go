package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestParseTradeRawEvent(t *testing.T) {
	b := []byte(`{"e":"trade","s":"BTCUSDT","p":"65000.12","q":"0.5","T":1728561600123}`)
	tick, ok := parseTrade(b)
	if !ok {
		t.Fatalf("expected trade to parse")
	}
	if tick.Symbol != "btcusdt" {
		t.Fatalf("expected lowercase symbol, got %q", tick.Symbol)
	}
	if tick.Price != 65000.12 || tick.Size != 0.5 {
		t.Fatalf("unexpected price/size %v/%v", tick.Price, tick.Size)
	}
	if tick.Timestamp.UnixMilli() != 1728561600123 {
		t.Fatalf("unexpected timestamp %v", tick.Timestamp)
	}
}

func TestParseTradeCombinedEnvelope(t *testing.T) {
	b := []byte(`{"stream":"ethusdt@trade","data":{"e":"trade","s":"ETHUSDT","p":"3200.5","q":"2","T":1728561600000}}`)
	tick, ok := parseTrade(b)
	if !ok {
		t.Fatalf("expected envelope trade to parse")
	}
	if tick.Symbol != "ethusdt" || tick.Price != 3200.5 {
		t.Fatalf("unexpected tick %+v", tick)
	}
}

func TestParseTradeRejectsOtherFrames(t *testing.T) {
	for _, raw := range []string{
		`{"result":null,"id":1}`,
		`{"e":"aggTrade","s":"BTCUSDT","p":"1","q":"1","T":1}`,
		`{"e":"trade","s":"BTCUSDT","p":"not-a-number","q":"1","T":1}`,
		`not json`,
	} {
		if _, ok := parseTrade([]byte(raw)); ok {
			t.Fatalf("frame %q must not parse as trade", raw)
		}
	}
}

// wsTestServer upgrades, records every subscribe frame, and sends the given
// trade payloads after the first one.
func wsTestServer(t *testing.T, payloads []string, gotSub chan<- map[string]interface{}) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	record := func(b []byte) {
		var sub map[string]interface{}
		if err := json.Unmarshal(b, &sub); err == nil {
			select {
			case gotSub <- sub:
			default:
			}
		}
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, b, err := conn.ReadMessage()
		if err != nil {
			return
		}
		record(b)
		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		// keep recording until the client goes away
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				return
			}
			record(b)
		}
	}))
}

func TestClientSubscribeAndRead(t *testing.T) {
	gotSub := make(chan map[string]interface{}, 1)
	srv := wsTestServer(t, []string{
		`{"e":"trade","s":"BTCUSDT","p":"100.5","q":"1.5","T":1728561600000}`,
		`{"result":null,"id":1}`,
		`{"e":"trade","s":"ETHUSDT","p":"50","q":"3","T":1728561601000}`,
	}, gotSub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, []string{"BTCUSDT", "ETHUSDT"}, 100*time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	if !c.IsConnected() {
		t.Fatalf("expected connected after Connect")
	}
	if err := c.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case sub := <-gotSub:
		if sub["method"] != "SUBSCRIBE" {
			t.Fatalf("unexpected subscribe frame %v", sub)
		}
		params, _ := sub["params"].([]interface{})
		if len(params) != 2 || params[0] != "btcusdt@trade" {
			t.Fatalf("unexpected subscribe params %v", params)
		}
	case <-ctx.Done():
		t.Fatalf("server never saw subscribe frame")
	}

	ticks, _ := c.Read(ctx)
	var got []string
	for len(got) < 2 {
		select {
		case tick := <-ticks:
			got = append(got, tick.Symbol)
		case <-ctx.Done():
			t.Fatalf("timed out after %d ticks", len(got))
		}
	}
	if got[0] != "btcusdt" || got[1] != "ethusdt" {
		t.Fatalf("unexpected tick order %v", got)
	}
}

func TestClientReconnectResubscribes(t *testing.T) {
	gotSub := make(chan map[string]interface{}, 2)
	srv := wsTestServer(t, nil, gotSub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, []string{"btcusdt", "ethusdt"}, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-gotSub

	if err := c.Reconnect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer c.Close()
	if !c.IsConnected() {
		t.Fatalf("expected connected after Reconnect")
	}

	select {
	case sub := <-gotSub:
		params, _ := sub["params"].([]interface{})
		if len(params) != 2 || params[0] != "btcusdt@trade" || params[1] != "ethusdt@trade" {
			t.Fatalf("reconnect subscribed with %v", params)
		}
	case <-ctx.Done():
		t.Fatalf("server never saw resubscribe frame")
	}
}

func TestClientAddSymbolSubscribesAndSurvivesReconnect(t *testing.T) {
	gotSub := make(chan map[string]interface{}, 4)
	srv := wsTestServer(t, nil, gotSub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, []string{"btcusdt"}, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-gotSub

	if err := c.AddSymbol(ctx, "SOLUSDT"); err != nil {
		t.Fatalf("add symbol: %v", err)
	}
	defer c.Close()

	select {
	case sub := <-gotSub:
		params, _ := sub["params"].([]interface{})
		if len(params) != 1 || params[0] != "solusdt@trade" {
			t.Fatalf("incremental subscribe sent %v", params)
		}
	case <-ctx.Done():
		t.Fatalf("server never saw incremental subscribe")
	}

	got := c.Symbols()
	if len(got) != 2 || got[1] != "solusdt" {
		t.Fatalf("unexpected symbol set %v", got)
	}
	if err := c.AddSymbol(ctx, "solusdt"); err != nil {
		t.Fatalf("re-adding must be a no-op, got %v", err)
	}
	if len(c.Symbols()) != 2 {
		t.Fatalf("duplicate add grew the set: %v", c.Symbols())
	}

	if err := c.Reconnect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	select {
	case sub := <-gotSub:
		params, _ := sub["params"].([]interface{})
		if len(params) != 2 || params[0] != "btcusdt@trade" || params[1] != "solusdt@trade" {
			t.Fatalf("reconnect resubscribed with %v", params)
		}
	case <-ctx.Done():
		t.Fatalf("server never saw resubscribe frame")
	}
}

func TestClientReadTimesOutOnSilentPeer(t *testing.T) {
	up := websocket.Upgrader{}
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// never read: pings go unanswered and no pong ever arrives
		<-block
	}))
	defer srv.Close()
	defer close(block)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, []string{"btcusdt"}, 10*time.Millisecond, 30*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	_, errs := c.Read(ctx)
	select {
	case err := <-errs:
		if err == nil {
			t.Fatalf("expected a read error from the dead peer")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("silent peer never surfaced a read error")
	}
}

func TestClientCloseMarksDisconnected(t *testing.T) {
	gotSub := make(chan map[string]interface{}, 1)
	srv := wsTestServer(t, nil, gotSub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, []string{"btcusdt"}, 100*time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.IsConnected() {
		t.Fatalf("expected disconnected after Close")
	}
	if err := c.Subscribe(ctx); err == nil {
		t.Fatalf("subscribe on closed client must fail")
	}
}
