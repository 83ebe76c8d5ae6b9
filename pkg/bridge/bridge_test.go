package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuekit-dev/cuekit/pkg/props"
)

var lightType = props.NewType("BridgeLight", nil, props.Schema{
	"intensity": {Default: 0},
	"color":     {Default: "white"},
})

// newTestBridge returns a running bridge with its own metrics registry and
// a cancel function that stops the loop.
func newTestBridge(t *testing.T) (*Bridge, context.CancelFunc) {
	t.Helper()

	b := New(WithRegisterer(prometheus.NewRegistry()))
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	return b, cancel
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	light := props.NewObject(lightType)
	if err := b.Register("light", light); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := b.Register("light", props.NewObject(lightType)); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if err := b.Register("nil", nil); err == nil {
		t.Error("expected nil object registration to fail")
	}

	if b.Object("light") != props.Holder(light) {
		t.Error("expected lookup to return the registered object")
	}
}

func TestListObjects(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	b.Register("b-light", props.NewObject(lightType))
	b.Register("a-light", props.NewObject(lightType))

	server := httptest.NewServer(b.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/objects")
	if err != nil {
		t.Fatalf("GET /objects failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Objects []string `json:"objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(body.Objects) != 2 || body.Objects[0] != "a-light" || body.Objects[1] != "b-light" {
		t.Errorf("expected sorted object names, got %v", body.Objects)
	}
}

func TestGetObjectFullAndSparse(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	light := props.NewObject(lightType)
	light.Set("intensity", 50)
	b.Register("light", light)

	server := httptest.NewServer(b.Handler())
	defer server.Close()

	full := getJSON(t, server.URL+"/objects/light")
	if full["intensity"] != 50.0 || full["color"] != "white" {
		t.Errorf("unexpected full export: %v", full)
	}

	sparse := getJSON(t, server.URL+"/objects/light?sparse=1")
	if len(sparse) != 1 || sparse["intensity"] != 50.0 {
		t.Errorf("unexpected sparse export: %v", sparse)
	}
}

func TestGetUnknownObject(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	server := httptest.NewServer(b.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/objects/phantom")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPatchAppliesUpdate(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	light := props.NewObject(lightType)
	b.Register("light", light)

	server := httptest.NewServer(b.Handler())
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPatch, server.URL+"/objects/light",
		bytes.NewBufferString(`{"intensity": 75, "bogus": 1}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// The patch ran on the loop before the handler returned.
	got := getJSON(t, server.URL+"/objects/light?sparse=1")
	if got["intensity"] != 75.0 {
		t.Errorf("expected patched intensity, got %v", got)
	}
}

func TestPatchBadPayload(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	b.Register("light", props.NewObject(lightType))

	server := httptest.NewServer(b.Handler())
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPatch, server.URL+"/objects/light",
		bytes.NewBufferString(`not json`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketReceivesChangeFrames(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	light := props.NewObject(lightType)
	b.Register("light", light)

	server := httptest.NewServer(b.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return b.ClientCount() == 1 })

	b.Loop().Post(func() { light.Set("intensity", 30) })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		t.Fatalf("frame decode failed: %v", err)
	}
	if f.Object != "light" || f.Property != "intensity" || f.Value != 30.0 {
		t.Errorf("unexpected frame: %+v", f)
	}
}

func TestWebSocketInboundFrameUpdatesObject(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	light := props.NewObject(lightType)
	b.Register("light", light)

	server := httptest.NewServer(b.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	msg, _ := json.Marshal(frame{Object: "light", Property: "color", Value: "red"})
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitFor(t, func() bool {
		var got any
		done := make(chan struct{})
		b.Loop().Post(func() {
			got = light.Get("color")
			close(done)
		})
		<-done
		return got == "red"
	})
}

func TestDeregisterStopsBroadcast(t *testing.T) {
	b, cancel := newTestBridge(t)
	defer cancel()

	light := props.NewObject(lightType)
	b.Register("light", light)
	b.Deregister("light")
	b.Deregister("light") // no-op

	if b.Object("light") != nil {
		t.Error("expected object removed")
	}
	if light.PropertyChanged().Len() != 0 {
		t.Error("expected the change subscription to be disconnected")
	}
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return body
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
