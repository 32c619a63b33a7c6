package sse

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrStream 对端在流中给出的错误
var ErrStream = errors.New("stream error")

// Event 解码得到的一个事件
type Event struct {
	Name string
	Data string
}

// Scan 逐个读取事件，fn 返回 false 时停止
// 只认 "event:" 和 "data:" 字段，注释行和其他字段忽略
func Scan(r io.Reader, fn func(Event) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ev Event
	var data []string
	flush := func() bool {
		if len(data) == 0 {
			ev = Event{}
			return true
		}
		ev.Data = strings.Join(data, "\n")
		cont := fn(ev)
		ev, data = Event{}, nil
		return cont
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if !flush() {
				return nil
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	flush()
	return nil
}

// ParseFrame 解析默认事件的数据；done 表示遇到结束标记
func ParseFrame(data string) (f Frame, done bool, err error) {
	if strings.TrimSpace(data) == DoneMarker {
		return Frame{}, true, nil
	}
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return Frame{}, false, fmt.Errorf("invalid frame %q: %w", data, err)
	}
	return f, false, nil
}
