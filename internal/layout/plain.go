package layout

import "strings"

// PlainText 把节点流还原为纯文本行，行内强调标记已去除
// 整行粗体的标题保留 ** 标记，再次 Render 得到的结构与原节点一致
func PlainText(nodes []Node) string {
	lines := make([]string, 0, len(nodes))
	for _, n := range nodes {
		switch n.Kind {
		case KindSpacer:
			lines = append(lines, "")
		case KindRule:
			lines = append(lines, "---")
		case KindHeading1:
			lines = append(lines, "# "+n.Text)
		case KindBanner:
			lines = append(lines, "## "+n.Text)
		case KindHeading3:
			lines = append(lines, "### "+n.Text)
		case KindHeading4:
			lines = append(lines, "#### "+n.Text)
		case KindBoldHeading:
			lines = append(lines, "**"+n.Text+"**")
		case KindBullet:
			lines = append(lines, "- "+n.PlainText())
		case KindNumbered:
			lines = append(lines, n.Number+". "+n.PlainText())
		case KindTable:
			lines = append(lines, tableLines(n)...)
		default:
			lines = append(lines, n.PlainText())
		}
	}
	return strings.Join(lines, "\n")
}

func tableLines(n Node) []string {
	out := make([]string, 0, len(n.Rows)+2)
	out = append(out, "| "+strings.Join(n.Headers, " | ")+" |")
	sep := make([]string, len(n.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	out = append(out, "| "+strings.Join(sep, " | ")+" |")
	for _, r := range n.Rows {
		out = append(out, "| "+strings.Join(r, " | ")+" |")
	}
	return out
}
