package utils

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

// ErrNoJSON 文本中没有可解析的 JSON 对象
var ErrNoJSON = errors.New("no json object found")

// JSONSource 提取到的 JSON 来自哪一层
type JSONSource int

const (
	JSONNone JSONSource = iota
	// JSONFenced ```json ... ``` 代码块
	JSONFenced
	// JSONBare 第一个 { 到最后一个 } 之间的内容
	JSONBare
	// JSONBalanced 第一个括号配平的对象
	JSONBalanced
)

func (s JSONSource) String() string {
	switch s {
	case JSONFenced:
		return "fenced"
	case JSONBare:
		return "bare"
	case JSONBalanced:
		return "balanced"
	}
	return "none"
}

var fencedJSONRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)```")

// ExtractJSON 从文本中提取第一个括号配平的 JSON 对象
// 找不到时返回原文
func ExtractJSON(content string) string {
	start := -1
	end := -1
	depth := 0

	for i, ch := range content {
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == '}' {
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				end = i + 1
				break
			}
		}
	}

	if start >= 0 && end > start {
		return content[start:end]
	}

	return content
}

// ExtractJSONObject 按层级尝试从模型输出中解析 JSON 对象
// 代码块优先于裸对象；每一层解析失败都继续尝试下一层
func ExtractJSONObject(content string) (map[string]any, JSONSource, error) {
	if m := fencedJSONRe.FindStringSubmatch(content); m != nil {
		if obj, ok := parseObject(strings.TrimSpace(m[1])); ok {
			return obj, JSONFenced, nil
		}
		klog.V(6).Infof("[ExtractJSONObject] 代码块内容不是合法 JSON，尝试裸对象")
	}

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first >= 0 && last > first {
		if obj, ok := parseObject(content[first : last+1]); ok {
			return obj, JSONBare, nil
		}
		// 逐个 { 起点尝试配平扫描
		for i := first; i >= 0; {
			if obj, ok := parseObject(ExtractJSON(content[i:])); ok {
				return obj, JSONBalanced, nil
			}
			next := strings.Index(content[i+1:], "{")
			if next < 0 {
				break
			}
			i += next + 1
		}
	}

	return nil, JSONNone, ErrNoJSON
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON序列化失败: %v", err)
		return ""
	}
	return string(jsonData)
}
