// Package sse 实现进程内的 Server-Sent-Events 通知枢纽：按用户维护多路打开的
// 流连接，带背压地投递领域事件，并负责心跳与优雅停机。
package sse

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Event 是一条待投递的事件，编码后以单个 SSE 帧发出。
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Format 将事件编码为 "data: <json>\n\n" 帧。JSON 不做 HTML 转义，
// 保证非 ASCII 内容原样下发。
func Format(e Event) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return "", err
	}
	return "data: " + strings.TrimRight(b.String(), "\n") + "\n\n", nil
}
