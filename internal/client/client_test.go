package client

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/phuslu/log"

	"github.com/myuser/astrobase/internal/metrics"
	"github.com/myuser/astrobase/internal/server"
	"github.com/myuser/astrobase/internal/storage"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	logger := &log.Logger{Level: log.InfoLevel, Writer: &log.IOWriter{Writer: io.Discard}}
	svc := server.New(storage.NewMemoryStore(), metrics.NewStats(metrics.NewRegistry()), logger)
	ts := httptest.NewServer(svc.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestClientRoundTrip(t *testing.T) {
	c := newClient(t)

	check := func(op string, out server.Output, err error, want server.Output) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s failed: %v", op, err)
		}
		if out != want {
			t.Errorf("%s: want %+v, got %+v", op, want, out)
		}
	}

	out, err := c.Insert("a", "1")
	check("insert", out, err, server.Output{OK: true})
	out, err = c.Get("a")
	check("get", out, err, server.Output{OK: true, Info: "1"})
	out, err = c.Update("a", "2")
	check("update", out, err, server.Output{OK: true})
	out, err = c.Delete("a")
	check("delete", out, err, server.Output{OK: true, Info: "2"})
	out, err = c.Get("a")
	check("get missing", out, err, server.Output{OK: false, Info: "Record 'a' is missing"})
	out, err = c.Execute("INSERT INTO t VALUES ('b', '3')")
	check("execute", out, err, server.Output{OK: true})

	// rejected input still decodes as an Output
	out, err = c.Get("")
	check("get empty", out, err, server.Output{OK: false, Info: server.ErrEmptyKey.Error()})

	snapshot, err := c.Metrics()
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if snapshot[metrics.Records] != 1 {
		t.Errorf("records: want 1, got %d", snapshot[metrics.Records])
	}
}

func TestNewAddsScheme(t *testing.T) {
	if c := New("127.0.0.1:50051"); c.endpoint != "http://127.0.0.1:50051" {
		t.Errorf("Unexpected endpoint %s", c.endpoint)
	}
	if c := New("https://db.local/"); c.endpoint != "https://db.local" {
		t.Errorf("Unexpected endpoint %s", c.endpoint)
	}
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	if _, err := New(url).Get("a"); err == nil {
		t.Error("Expected transport error")
	}
}
