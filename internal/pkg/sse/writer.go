package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// DoneMarker 流结束标记
const DoneMarker = "[DONE]"

// Frame 默认事件的数据帧，text 和 error 二选一
type Frame struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Writer 按 "data: {...}\n\n" 格式写出事件，每帧写完立即 flush
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

// NewWriter 设置 SSE 响应头并返回 Writer
func NewWriter(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// Text 写出一段增量文本
func (w *Writer) Text(text string) error {
	return w.data(Frame{Text: text})
}

// Error 写出错误帧
func (w *Writer) Error(msg string) error {
	return w.data(Frame{Error: msg})
}

// Done 写出结束标记
func (w *Writer) Done() error {
	return w.write("", DoneMarker)
}

// Event 写出具名事件，例如 result
func (w *Writer) Event(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(name, string(raw))
}

func (w *Writer) data(f Frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return w.write("", string(raw))
}

func (w *Writer) write(event, data string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if event != "" {
		if _, err := fmt.Fprintf(w.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
