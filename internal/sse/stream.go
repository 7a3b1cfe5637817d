package sse

import (
	"context"
	"io"
	"log"
	"time"
)

// FrameWriter 是流式响应需要满足的最小接口。gin 的 ResponseWriter
// 以及任何 http.ResponseWriter + http.Flusher 组合都可直接使用。
type FrameWriter interface {
	io.Writer
	Flush()
}

// Stream 是一路已注册到枢纽的流。由处理器在响应 goroutine 上执行 Run，
// 其余各方只通过 Connection 的队列与关闭通道与之交互。
type Stream struct {
	hub    *Hub
	conn   *Connection
	userID uint
}

// OpenStream 为用户新建一条连接并注册到枢纽。
func (h *Hub) OpenStream(userID uint) *Stream {
	conn := newConnection(userID, h.queueSize)
	h.Add(userID, conn)
	return &Stream{hub: h, conn: conn, userID: userID}
}

// Run 驱动流循环：先发一帧 connection 事件，随后在消息、关闭信号、
// 请求取消与超时之间多路等待；静默超过阈值时发心跳。任何退出路径
// 都会关闭并注销连接。
func (s *Stream) Run(ctx context.Context, w FrameWriter) {
	defer func() {
		s.conn.Close()
		s.hub.Remove(s.userID, s.conn)
	}()

	initial := Event{
		Type: "connection",
		Data: map[string]interface{}{
			"status":    "connected",
			"user_id":   s.userID,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	if !s.writeEvent(w, initial) {
		return
	}
	lastSent := time.Now()

	timer := time.NewTimer(s.hub.streamTimeout)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.hub.streamTimeout)

		select {
		case message := <-s.conn.queue:
			// 关闭与消息同时就绪时，关闭优先：close 之后不再发任何帧
			select {
			case <-s.conn.Closed():
				return
			default:
			}
			if !s.writeFrame(w, message) {
				return
			}
			lastSent = time.Now()

		case <-s.conn.Closed():
			return

		case <-ctx.Done():
			return

		case <-timer.C:
			if time.Since(lastSent) < s.hub.heartbeatAfter {
				continue
			}
			heartbeat := Event{
				Type: "heartbeat",
				Data: map[string]interface{}{
					"timestamp": time.Now().Format(time.RFC3339),
				},
			}
			if !s.writeEvent(w, heartbeat) {
				return
			}
			lastSent = time.Now()
		}
	}
}

func (s *Stream) writeEvent(w FrameWriter, e Event) bool {
	frame, err := Format(e)
	if err != nil {
		log.Printf("sse: failed to encode %s event for user %d: %v", e.Type, s.userID, err)
		return true
	}
	return s.writeFrame(w, frame)
}

func (s *Stream) writeFrame(w FrameWriter, frame string) bool {
	if _, err := io.WriteString(w, frame); err != nil {
		return false
	}
	w.Flush()
	return true
}
