package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"
)

func TestIncomingMessageClassification(t *testing.T) {
	var resp IncomingMessage
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.IsResponse() || resp.IsNotification() || resp.IsRPCCall() {
		t.Fatalf("expected response classification, got %+v", resp)
	}

	var notif IncomingMessage
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"session/update","params":{}}`), &notif); err != nil {
		t.Fatal(err)
	}
	if notif.IsResponse() || !notif.IsNotification() || notif.IsRPCCall() {
		t.Fatalf("expected notification classification, got %+v", notif)
	}

	var call IncomingMessage
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":5,"method":"session/request_permission","params":{}}`), &call); err != nil {
		t.Fatal(err)
	}
	if call.IsResponse() || call.IsNotification() || !call.IsRPCCall() {
		t.Fatalf("expected rpc-call classification, got %+v", call)
	}
}

// pipe wires a Client's writer into a reader the test can read from, and
// lets the test write lines as if they came from the child process.
type pipe struct {
	toChild   *bytes.Buffer
	fromChild *io.PipeWriter
	childRead *io.PipeReader
}

func newClientPair() (*Client, *bytes.Buffer, *io.PipeWriter) {
	toChild := &bytes.Buffer{}
	r, w := io.Pipe()
	c := New(toChild, r)
	return c, toChild, w
}

func TestRequestRacesResponseCorrectly(t *testing.T) {
	c, toChild, fromChild := newClientPair()
	defer c.Close()

	done := make(chan Response, 1)
	go func() {
		resp, err := c.Request("initialize", map[string]int{"protocolVersion": 1})
		if err != nil {
			t.Errorf("Request: %v", err)
			return
		}
		done <- resp
	}()

	// Wait until the request line has actually been written before
	// replying, exercising the "register before write" ordering.
	deadline := time.After(2 * time.Second)
	for toChild.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for request to be written")
		default:
		}
	}

	if !strings.Contains(toChild.String(), "initialize") {
		t.Fatalf("expected initialize request written, got %q", toChild.String())
	}

	fromChild.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"capabilities":{}}}` + "\n"))

	select {
	case resp := <-done:
		if resp.ID == nil || *resp.ID != 1 {
			t.Fatalf("unexpected response id: %+v", resp)
		}
		if resp.Error != nil {
			t.Fatalf("unexpected error: %v", resp.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestNotifyOmitsID(t *testing.T) {
	c, toChild, _ := newClientPair()
	defer c.Close()

	if err := c.Notify("session/update", map[string]string{"status": "active"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(toChild.String(), `"id"`) {
		t.Fatalf("notification must omit id, got %q", toChild.String())
	}
}

func TestTeardownFailsPendingRequests(t *testing.T) {
	toChild := &bytes.Buffer{}
	r, w := io.Pipe()
	c := New(toChild, r)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Request("slow/call", nil)
		errCh <- err
	}()

	deadline := time.After(2 * time.Second)
	for toChild.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for request to be written")
		default:
		}
	}

	w.Close() // simulates child process exiting: reader hits EOF

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected torn-down response to resolve Request, got err %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for teardown to resolve pending request")
	}
}
