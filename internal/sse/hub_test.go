package sse

import (
	"strings"
	"testing"
	"time"
)

func TestFormatFrame(t *testing.T) {
	frame, err := Format(Event{Type: "notification", Data: map[string]interface{}{"title": "chào & <b>"}})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.HasPrefix(frame, "data: ") || !strings.HasSuffix(frame, "\n\n") {
		t.Errorf("frame not wire-formatted: %q", frame)
	}
	if strings.Contains(frame, `<`) || strings.Contains(frame, `&`) {
		t.Errorf("frame has HTML-escaped payload: %q", frame)
	}
	if !strings.Contains(frame, `"type":"notification"`) {
		t.Errorf("frame missing event type: %q", frame)
	}
}

func TestHubAddRemove(t *testing.T) {
	h := NewHub()
	conn := newConnection(7, 4)

	h.Add(7, conn)
	if !h.HasConnections(7) {
		t.Fatal("connection not registered")
	}
	if h.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1", h.ConnectionCount())
	}

	h.Remove(7, conn)
	if h.HasConnections(7) {
		t.Fatal("connection still registered after remove")
	}
	if h.ConnectionCount() != 0 {
		t.Fatalf("connection count = %d, want 0", h.ConnectionCount())
	}
}

func TestSendEnqueuesToEveryConnection(t *testing.T) {
	h := NewHub()
	first := newConnection(1, 4)
	second := newConnection(1, 4)
	h.Add(1, first)
	h.Add(1, second)

	h.Send(1, Event{Type: "notification", Data: map[string]interface{}{"id": 1}})

	for _, conn := range []*Connection{first, second} {
		select {
		case frame := <-conn.queue:
			if !strings.Contains(frame, `"type":"notification"`) {
				t.Errorf("unexpected frame: %q", frame)
			}
		default:
			t.Error("connection received nothing")
		}
	}
}

func TestSendToUnknownUserIsNoop(t *testing.T) {
	h := NewHub()
	h.Send(42, Event{Type: "notification"})
}

func TestSendDropsWhenQueueFull(t *testing.T) {
	h := NewHubWithTimings(1, 0, 0)
	conn := newConnection(5, 1)
	h.Add(5, conn)

	h.Send(5, Event{Type: "notification", Data: "first"})
	// 队列容量 1 已满,第二条在超时后丢弃,连接保持注册
	h.Send(5, Event{Type: "notification", Data: "second"})

	if !h.HasConnections(5) {
		t.Fatal("connection dropped instead of just the message")
	}
	frame := <-conn.queue
	if !strings.Contains(frame, "first") {
		t.Errorf("surviving frame = %q, want the first message", frame)
	}
	select {
	case extra := <-conn.queue:
		t.Errorf("queue held a dropped message: %q", extra)
	default:
	}
}

func TestSendRemovesClosedConnections(t *testing.T) {
	h := NewHub()
	conn := newConnection(9, 4)
	h.Add(9, conn)
	conn.Close()

	h.Send(9, Event{Type: "notification"})

	if h.HasConnections(9) {
		t.Fatal("closed connection still registered after send")
	}
}

func TestShutdownClosesEverything(t *testing.T) {
	h := NewHub()
	first := newConnection(1, 4)
	second := newConnection(2, 4)
	h.Add(1, first)
	h.Add(2, second)

	h.Shutdown()

	if h.ConnectionCount() != 0 {
		t.Fatalf("connection count = %d after shutdown, want 0", h.ConnectionCount())
	}
	for _, conn := range []*Connection{first, second} {
		select {
		case <-conn.Closed():
		case <-time.After(time.Second):
			t.Fatal("connection not closed by shutdown")
		}
	}

	// 停机后的投递是静默 no-op
	h.Send(1, Event{Type: "notification"})
	select {
	case frame := <-first.queue:
		t.Errorf("message delivered after shutdown: %q", frame)
	default:
	}
}

func TestDeliverDoesNotBlockCaller(t *testing.T) {
	h := NewHubWithTimings(1, 0, 0)
	conn := newConnection(3, 1)
	h.Add(3, conn)

	h.Deliver(3, Event{Type: "notification", Data: "a"})
	// 第二条会在后台等满超时再丢弃,调用方不应被拖住
	start := time.Now()
	h.Deliver(3, Event{Type: "notification", Data: "b"})
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Deliver blocked for %v", elapsed)
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	conn := newConnection(1, 1)
	conn.Close()
	if err := conn.Enqueue("data: {}\n\n"); err != ErrConnectionClosed {
		t.Fatalf("err = %v, want ErrConnectionClosed", err)
	}
}
