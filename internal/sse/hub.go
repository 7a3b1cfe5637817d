package sse

import (
	"log"
	"sync"
	"time"
)

const (
	// DefaultTimeout 是流循环单次等待消息的上限。
	DefaultTimeout = 5 * time.Second

	// MaxTimeRetryConnection 是发出心跳帧前允许的最长静默时间。
	MaxTimeRetryConnection = 30 * time.Second
)

// Hub 按用户维护所有存活的 SSE 连接。唯一的共享可变状态是
// connections 映射，由单把互斥锁保护；投递永远在锁外进行。
type Hub struct {
	mu           sync.Mutex
	connections  map[uint]map[*Connection]struct{}
	shuttingDown bool

	queueSize      int
	streamTimeout  time.Duration
	heartbeatAfter time.Duration
}

// NewHub 构造一个使用默认队列容量与默认超时的枢纽。
func NewHub() *Hub {
	return &Hub{
		connections:    make(map[uint]map[*Connection]struct{}),
		queueSize:      MaxQueueSize,
		streamTimeout:  DefaultTimeout,
		heartbeatAfter: MaxTimeRetryConnection,
	}
}

// NewHubWithTimings 构造一个自定义队列容量与超时的枢纽，便于在测试中缩短等待。
func NewHubWithTimings(queueSize int, streamTimeout, heartbeatAfter time.Duration) *Hub {
	h := NewHub()
	if queueSize > 0 {
		h.queueSize = queueSize
	}
	if streamTimeout > 0 {
		h.streamTimeout = streamTimeout
	}
	if heartbeatAfter > 0 {
		h.heartbeatAfter = heartbeatAfter
	}
	return h
}

// Add 将连接注册到用户名下。
func (h *Hub) Add(userID uint, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*Connection]struct{})
	}
	h.connections[userID][conn] = struct{}{}
}

// Remove 注销连接，并清掉空的用户条目。
func (h *Hub) Remove(userID uint, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.connections[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, userID)
		}
	}
}

// HasConnections 报告用户当前是否有存活的流。
func (h *Hub) HasConnections(userID uint) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections[userID]) > 0
}

// Send 向用户的全部存活连接投递一个事件。无连接时静默返回；
// 某条连接队列打满则只丢弃该连接的这条消息；已死连接随手摘除。
func (h *Hub) Send(userID uint, event Event) {
	h.mu.Lock()
	if h.shuttingDown {
		h.mu.Unlock()
		return
	}
	conns := make([]*Connection, 0, len(h.connections[userID]))
	for conn := range h.connections[userID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return
	}

	message, err := Format(event)
	if err != nil {
		log.Printf("sse: failed to encode %s event for user %d: %v", event.Type, userID, err)
		return
	}

	var dead []*Connection
	for _, conn := range conns {
		switch err := conn.Enqueue(message); {
		case err == nil:
		case err == ErrQueueFull:
			log.Printf("sse: message queue full for user %d, dropping message", userID)
		default:
			dead = append(dead, conn)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, conn := range dead {
			if set, ok := h.connections[userID]; ok {
				delete(set, conn)
				if len(set) == 0 {
					delete(h.connections, userID)
				}
			}
		}
		h.mu.Unlock()
	}
}

// Deliver 是同步调用方与投递环路之间的桥：立即返回，投递在独立的
// goroutine 中完成，失败只会被记录，不回传给领域代码。
func (h *Hub) Deliver(userID uint, event Event) {
	go h.Send(userID, event)
}

// Shutdown 进入停机状态：拒绝后续投递，关闭所有连接并清空注册表。
// 预期挂在服务进程的退出序列上（SIGTERM/SIGINT）。
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.shuttingDown = true
	var all []*Connection
	for _, conns := range h.connections {
		for conn := range conns {
			all = append(all, conn)
		}
	}
	h.connections = make(map[uint]map[*Connection]struct{})
	h.mu.Unlock()

	for _, conn := range all {
		conn.Close()
	}
	if len(all) > 0 {
		log.Printf("sse: shut down %d connection(s)", len(all))
	}
}

// ConnectionCount 返回当前注册的连接总数，仅用于观测与测试。
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}
