package layout

import (
	"regexp"
	"strings"
)

// Kind 布局节点类型
type Kind string

const (
	KindSpacer      Kind = "spacer"
	KindRule        Kind = "rule"
	KindHeading1    Kind = "heading1"
	KindBanner      Kind = "banner"
	KindHeading3    Kind = "heading3"
	KindHeading4    Kind = "heading4"
	KindBoldHeading Kind = "boldHeading"
	KindBullet      Kind = "bullet"
	KindNumbered    Kind = "numbered"
	KindTable       Kind = "table"
	KindParagraph   Kind = "paragraph"
)

const (
	DefaultAccentColor  = "#E85D2B"
	DefaultBodyFontSize = 10.0
	// 列表项固定使用小号字
	ListFontSize = 9.0
)

// Options 渲染参数
type Options struct {
	AccentColor  string  `json:"accentColor,omitempty"`
	BodyFontSize float64 `json:"bodyFontSize,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.AccentColor == "" {
		o.AccentColor = DefaultAccentColor
	}
	if o.BodyFontSize <= 0 {
		o.BodyFontSize = DefaultBodyFontSize
	}
	return o
}

// Run 一段行内文本
type Run struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Node 与绘制无关的布局节点，PDF 和 HTML 两个绘制器消费同一份节点流
type Node struct {
	Kind Kind `json:"kind"`
	// Text 标题类节点的纯文本（已去掉标记）
	Text string `json:"text,omitempty"`
	// Runs 正文类节点的行内片段
	Runs []Run `json:"runs,omitempty"`
	// Number 编号列表保留原始编号
	Number  string     `json:"number,omitempty"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`

	Accent   string  `json:"accent,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// PlainText 节点的纯文本内容
func (n Node) PlainText() string {
	if n.Text != "" {
		return n.Text
	}
	var b strings.Builder
	for _, r := range n.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

var (
	ruleRe           = regexp.MustCompile(`^[-*]{3,}$`)
	boldLineRe       = regexp.MustCompile(`^\*\*([^*]+)\*\*$`)
	bulletRe         = regexp.MustCompile(`^[-*•] `)
	numberedRe       = regexp.MustCompile(`^(\d+)\. (.+)`)
	tableSeparatorRe = regexp.MustCompile(`^\|[-:| ]+\|$`)
)

// Render 把受限 markdown 子集解析为布局节点
// 逐行单遍扫描，表格会一次消费多行。相同输入总是得到相同输出
func Render(content string, opts Options) []Node {
	opts = opts.withDefaults()
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	nodes := make([]Node, 0, len(lines))

	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		i++

		switch {
		case trimmed == "":
			nodes = append(nodes, Node{Kind: KindSpacer})
		case ruleRe.MatchString(trimmed):
			nodes = append(nodes, Node{Kind: KindRule})
		case strings.HasPrefix(trimmed, "# "):
			nodes = append(nodes, Node{Kind: KindHeading1, Text: stripMarkers(trimmed[2:])})
		case strings.HasPrefix(trimmed, "## "):
			nodes = append(nodes, Node{Kind: KindBanner, Text: stripMarkers(trimmed[3:])})
		case strings.HasPrefix(trimmed, "### "):
			nodes = append(nodes, Node{Kind: KindHeading3, Text: stripMarkers(trimmed[4:])})
		case strings.HasPrefix(trimmed, "#### "):
			nodes = append(nodes, Node{Kind: KindHeading4, Text: stripMarkers(trimmed[5:])})
		case boldLineRe.MatchString(trimmed):
			m := boldLineRe.FindStringSubmatch(trimmed)
			nodes = append(nodes, Node{Kind: KindBoldHeading, Text: m[1]})
		case bulletRe.MatchString(trimmed):
			text := bulletRe.ReplaceAllString(trimmed, "")
			nodes = append(nodes, Node{Kind: KindBullet, Runs: ParseInline(text), Accent: opts.AccentColor, FontSize: ListFontSize})
		case numberedRe.MatchString(trimmed):
			m := numberedRe.FindStringSubmatch(trimmed)
			nodes = append(nodes, Node{Kind: KindNumbered, Number: m[1], Runs: ParseInline(m[2]), Accent: opts.AccentColor, FontSize: ListFontSize})
		case strings.HasPrefix(trimmed, "|") && i < len(lines) && tableSeparatorRe.MatchString(strings.TrimSpace(lines[i])):
			var table Node
			table, i = readTable(trimmed, lines, i+1)
			nodes = append(nodes, table)
		case isLegacyBanner(trimmed):
			nodes = append(nodes, Node{Kind: KindBanner, Text: strings.TrimSuffix(trimmed, ":")})
		default:
			nodes = append(nodes, Node{Kind: KindParagraph, Runs: ParseInline(trimmed), FontSize: opts.BodyFontSize})
		}
	}
	return nodes
}

// 旧格式 "Group Name:" 等价于 ## 横幅
func isLegacyBanner(s string) bool {
	return strings.HasSuffix(s, ":") && !strings.HasPrefix(s, "-") && len([]rune(s)) < 80
}

// readTable 表头行已读出，next 指向分隔行之后的第一行
func readTable(header string, lines []string, next int) (Node, int) {
	node := Node{Kind: KindTable, Headers: splitRow(header)}
	for next < len(lines) {
		row := strings.TrimSpace(lines[next])
		if !strings.HasPrefix(row, "|") {
			break
		}
		node.Rows = append(node.Rows, splitRow(row))
		next++
	}
	return node, next
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, stripMarkers(p))
	}
	return cells
}
