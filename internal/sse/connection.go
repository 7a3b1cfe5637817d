package sse

import (
	"errors"
	"sync"
	"time"
)

const (
	// MaxQueueSize 是单个连接的消息队列容量，超出即触发丢弃策略。
	MaxQueueSize = 1000

	// enqueueTimeout 是投递方在满队列上等待的上限，超时丢弃该连接的这条消息。
	enqueueTimeout = time.Second
)

var (
	ErrConnectionClosed = errors.New("sse: connection closed")
	ErrQueueFull        = errors.New("sse: message queue full")
)

// Connection 是一路打开的 SSE 流持有的句柄，归属于单个用户。
// 队列由投递方写入、流循环消费；closed 只会关闭一次，用于唤醒等待方。
type Connection struct {
	userID uint
	queue  chan string
	closed chan struct{}
	once   sync.Once
}

func newConnection(userID uint, queueSize int) *Connection {
	if queueSize <= 0 {
		queueSize = MaxQueueSize
	}
	return &Connection{
		userID: userID,
		queue:  make(chan string, queueSize),
		closed: make(chan struct{}),
	}
}

// UserID 返回连接归属的用户。
func (c *Connection) UserID() uint {
	return c.userID
}

// Enqueue 投递一条已编码的帧。队列在 enqueueTimeout 内仍满返回 ErrQueueFull，
// 连接已关闭返回 ErrConnectionClosed。
func (c *Connection) Enqueue(message string) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}

	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()

	select {
	case c.queue <- message:
		return nil
	case <-c.closed:
		return ErrConnectionClosed
	case <-timer.C:
		return ErrQueueFull
	}
}

// Close 标记连接关闭并唤醒所有等待方。可重复调用。
func (c *Connection) Close() {
	c.once.Do(func() {
		close(c.closed)
	})
}

// Closed 返回在连接关闭时被 close 的通道。
func (c *Connection) Closed() <-chan struct{} {
	return c.closed
}
