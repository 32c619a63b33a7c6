package layout

import (
	"regexp"
	"strings"
)

var (
	boldItalicRe = regexp.MustCompile(`\*\*\*([^*]+)\*\*\*`)
	codeSpanRe   = regexp.MustCompile("`([^`\n]+)`")
	boldSpanRe   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
)

// ParseInline 把一行拆成普通/加粗片段
// ***x*** 视为加粗，代码和单星号斜体只保留文字
func ParseInline(raw string) []Run {
	pre := boldItalicRe.ReplaceAllString(raw, "**$1**")
	pre = codeSpanRe.ReplaceAllString(pre, "$1")
	pre = stripItalic(pre)

	var runs []Run
	last := 0
	for _, loc := range boldSpanRe.FindAllStringSubmatchIndex(pre, -1) {
		if loc[0] > last {
			runs = append(runs, Run{Text: pre[last:loc[0]]})
		}
		if loc[3] > loc[2] {
			runs = append(runs, Run{Text: pre[loc[2]:loc[3]], Bold: true})
		}
		last = loc[1]
	}
	if last < len(pre) {
		runs = append(runs, Run{Text: pre[last:]})
	}

	if len(runs) == 0 {
		return []Run{{Text: strings.ReplaceAll(raw, "**", "")}}
	}
	return runs
}

// HasBold 是否包含加粗片段
func HasBold(runs []Run) bool {
	for _, r := range runs {
		if r.Bold {
			return true
		}
	}
	return false
}

// stripItalic 去掉 *text*，不处理 ** 两侧的星号
func stripItalic(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if isSingleStar(s, i) {
			if j := strings.IndexByte(s[i+1:], '*'); j > 0 {
				end := i + 1 + j
				inner := s[i+1 : end]
				if isSingleStar(s, end) && !strings.Contains(inner, "\n") {
					b.WriteString(inner)
					i = end + 1
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isSingleStar(s string, i int) bool {
	if s[i] != '*' {
		return false
	}
	if i > 0 && s[i-1] == '*' {
		return false
	}
	return i+1 >= len(s) || s[i+1] != '*'
}

// stripMarkers 标题文本去掉加粗/斜体星号
func stripMarkers(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if isSingleStar(text, i) {
			continue
		}
		b.WriteByte(text[i])
	}
	return strings.TrimSpace(b.String())
}
