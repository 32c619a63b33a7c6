package pdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dixitakash2514/argos-mob-proposal/internal/layout"
	"github.com/dixitakash2514/argos-mob-proposal/internal/render"
	"github.com/go-pdf/fpdf"
	"k8s.io/klog/v2"
)

const (
	margin        = 14.0
	contentTop    = 24.0
	bottomReserve = 20.0
	// 1pt = 0.3528mm
	ptToMM     = 0.3528
	lineFactor = 1.5
	fontFamily = "Helvetica"
	darkColor  = "#0B1220"
	bodyColor  = "#333333"
	mutedColor = "#888888"
	// defaultWatermark 文档未指定水印时使用
	defaultWatermark = "ARGOSMOB"
)

type rgb struct{ r, g, b int }

// painter 把文档节点绘制成 A4 PDF
// 第 1 页固定为封面，不画页眉页脚
type painter struct {
	pdf    *fpdf.Fpdf
	doc    render.Document
	tr     func(string) string
	accent rgb
	width  float64
}

// Render 绘制 PDF 并写入 w
func Render(w io.Writer, doc render.Document) error {
	f, err := paint(doc)
	if err != nil {
		return err
	}
	return f.Output(w)
}

func paint(doc render.Document) (*fpdf.Fpdf, error) {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetMargins(margin, contentTop, margin)
	f.SetAutoPageBreak(true, bottomReserve)
	f.AliasNbPages("")
	f.SetTitle(doc.Cover.ProjectTitle, true)
	f.SetAuthor(doc.Company, true)
	f.SetCreator(doc.Company, true)

	pageW, _ := f.GetPageSize()
	p := &painter{
		pdf:    f,
		doc:    doc,
		tr:     f.UnicodeTranslatorFromDescriptor(""),
		accent: parseHex(doc.Options.AccentColor, parseHex(layout.DefaultAccentColor, rgb{})),
		width:  pageW - 2*margin,
	}
	f.SetHeaderFunc(p.header)
	f.SetFooterFunc(p.footer)

	p.cover()
	p.whyChooseUs()
	for _, page := range doc.Pages {
		p.section(page)
	}

	if err := f.Error(); err != nil {
		klog.Errorf("[PDF] 生成失败: proposalID=%s, error=%v", doc.ProposalID, err)
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	klog.V(6).Infof("[PDF] 生成完成: proposalID=%s, pages=%d", doc.ProposalID, f.PageNo())
	return f, nil
}

func (p *painter) header() {
	if p.pdf.PageNo() == 1 {
		return
	}
	p.watermark()

	f := p.pdf
	f.SetFont(fontFamily, "B", 7)
	p.color(mutedColor)
	f.SetXY(margin, 10)
	f.CellFormat(p.width/2, 4, p.tr(render.HeaderBrand), "", 0, "L", false, 0, "")
	f.SetFont(fontFamily, "", 7)
	f.CellFormat(p.width/2, 4, p.tr(p.doc.ClientLabel()), "", 0, "R", false, 0, "")
	f.SetDrawColor(230, 230, 230)
	f.SetLineWidth(0.2)
	f.Line(margin, 15, margin+p.width, 15)
	f.SetY(contentTop)
}

func (p *painter) footer() {
	if p.pdf.PageNo() == 1 {
		return
	}
	f := p.pdf
	_, pageH := f.GetPageSize()
	y := pageH - 14
	f.SetDrawColor(230, 230, 230)
	f.SetLineWidth(0.2)
	f.Line(margin, y, margin+p.width, y)
	f.SetXY(margin, y+2)
	f.SetFont(fontFamily, "", 7)
	p.color(mutedColor)
	f.CellFormat(p.width/2, 4, p.tr(p.doc.Company+" · "+render.Website), "", 0, "L", false, 0, "")
	f.CellFormat(p.width/2, 4, fmt.Sprintf("Page %d of {nb}", f.PageNo()), "", 0, "R", false, 0, "")
}

// watermark 旋转 45 度的低透明度水印，每页都画
func (p *painter) watermark() {
	f := p.pdf
	pageW, pageH := f.GetPageSize()
	text := p.tr(orDefault(p.doc.Watermark, defaultWatermark))
	f.SetFont(fontFamily, "B", 72)
	p.color(darkColor)
	textW := f.GetStringWidth(text)

	f.TransformBegin()
	f.TransformRotate(45, pageW/2, pageH/2)
	f.SetAlpha(0.05, "Normal")
	f.Text(pageW/2-textW/2, pageH/2+8, text)
	f.SetAlpha(1, "Normal")
	f.TransformEnd()
}

func (p *painter) cover() {
	f := p.pdf
	f.AddPage()
	pageW, pageH := f.GetPageSize()
	style := p.doc.Style
	bg := parseHex(style.Background, rgb{11, 18, 32})
	accent := parseHex(style.Accent, p.accent)
	sub := parseHex(style.Subtext, rgb{156, 163, 175})

	// 封面底色铺满整页，取消自动分页避免长标题把封面挤到第二页
	f.SetAutoPageBreak(false, 0)
	defer f.SetAutoPageBreak(true, bottomReserve)

	f.SetFillColor(bg.r, bg.g, bg.b)
	f.Rect(0, 0, pageW, pageH, "F")
	p.watermark()
	f.SetFillColor(accent.r, accent.g, accent.b)
	f.Rect(0, 0, pageW, 2, "F")

	x := 20.0
	f.Rect(x, 24, 20, 20, "F")
	f.SetFont(fontFamily, "B", 18)
	f.SetTextColor(255, 255, 255)
	f.SetXY(x, 24)
	f.CellFormat(20, 20, "AM", "", 0, "C", false, 0, "")
	f.SetXY(x+24, 30)
	f.SetFont(fontFamily, "B", 14)
	f.CellFormat(pageW-x-44, 8, p.tr(strings.ToUpper(p.doc.Company)), "", 0, "L", false, 0, "")
	f.SetXY(x+24, 38)
	f.SetFont(fontFamily, "", 8)
	f.SetTextColor(sub.r, sub.g, sub.b)
	f.CellFormat(pageW-x-44, 5, render.Tagline, "", 0, "L", false, 0, "")

	f.SetXY(x, 90)
	f.SetFont(fontFamily, "", 10)
	f.SetTextColor(accent.r, accent.g, accent.b)
	f.CellFormat(0, 6, "BUSINESS PROPOSAL", "", 1, "L", false, 0, "")
	f.SetX(x)
	f.SetFont(fontFamily, "B", 30)
	f.SetTextColor(255, 255, 255)
	f.MultiCell(pageW-2*x, 13, p.tr(orDash(p.doc.Cover.ProjectTitle)), "", "L", false)

	f.SetXY(x, f.GetY()+16)
	f.SetFont(fontFamily, "", 8)
	f.SetTextColor(sub.r, sub.g, sub.b)
	f.CellFormat(0, 5, "PREPARED FOR", "", 1, "L", false, 0, "")
	f.SetX(x)
	f.SetFont(fontFamily, "B", 18)
	f.SetTextColor(255, 255, 255)
	f.MultiCell(pageW-2*x, 9, p.tr(orDash(p.doc.Cover.ClientName)), "", "L", false)

	y := pageH - 60
	colW := (pageW - 2*x) / 3
	for i, item := range [][2]string{
		{"PREPARED BY", p.doc.Cover.PreparedBy},
		{"DATE", p.doc.Cover.Date},
		{"VERSION", p.doc.Cover.Version},
	} {
		f.SetXY(x+float64(i)*colW, y)
		f.SetFont(fontFamily, "", 7)
		f.SetTextColor(sub.r, sub.g, sub.b)
		f.CellFormat(colW, 4, item[0], "", 2, "L", false, 0, "")
		f.SetFont(fontFamily, "", 10)
		f.SetTextColor(255, 255, 255)
		f.CellFormat(colW, 6, p.tr(orDash(item[1])), "", 0, "L", false, 0, "")
	}

	f.SetXY(x, pageH-24)
	f.SetFont(fontFamily, "", 7)
	f.SetTextColor(85, 85, 85)
	f.MultiCell(pageW-2*x, 4, p.tr("This document is confidential and intended solely for "+
		orDefault(p.doc.Cover.ClientName, "the named recipient")+"."), "", "L", false)
}

func (p *painter) title(text string) {
	f := p.pdf
	f.SetFont(fontFamily, "B", 18)
	p.color(darkColor)
	f.MultiCell(p.width, 9, p.tr(text), "", "L", false)
	f.SetFillColor(p.accent.r, p.accent.g, p.accent.b)
	f.Rect(margin, f.GetY()+1, 14, 1, "F")
	f.Ln(7)
}

func (p *painter) whyChooseUs() {
	f := p.pdf
	f.AddPage()
	p.title("Why Choose " + p.doc.Company)

	gap := 4.0
	cardW := (p.width - gap) / 2
	textW := cardW - 8
	for i := 0; i < len(render.Strengths); i += 2 {
		row := render.Strengths[i:min(i+2, len(render.Strengths))]
		h := 0.0
		for _, s := range row {
			h = max(h, p.cardHeight(s, textW))
		}
		p.ensureSpace(h + gap)
		y := f.GetY()
		for j, s := range row {
			p.card(margin+float64(j)*(cardW+gap), y, cardW, h, s, (i+j)%2 == 0)
		}
		f.SetY(y + h + gap)
	}

	f.SetFont(fontFamily, "", 9)
	lines := f.SplitText(p.tr(render.Commitment), p.width-12)
	boxH := 16 + float64(len(lines))*5
	p.ensureSpace(boxH)
	y := f.GetY() + 2
	dark := parseHex(darkColor, rgb{})
	f.SetFillColor(dark.r, dark.g, dark.b)
	f.Rect(margin, y, p.width, boxH, "F")
	f.SetXY(margin+6, y+5)
	f.SetFont(fontFamily, "B", 11)
	f.SetTextColor(p.accent.r, p.accent.g, p.accent.b)
	f.CellFormat(p.width-12, 6, "Our Commitment", "", 2, "L", false, 0, "")
	f.SetFont(fontFamily, "", 9)
	f.SetTextColor(204, 204, 204)
	f.SetX(margin + 6)
	f.MultiCell(p.width-12, 5, p.tr(render.Commitment), "", "L", false)
}

func (p *painter) cardHeight(s render.Strength, textW float64) float64 {
	f := p.pdf
	f.SetFont(fontFamily, "", 8)
	return 12 + float64(len(f.SplitText(p.tr(s.Desc), textW)))*4
}

func (p *painter) card(x, y, w, h float64, s render.Strength, even bool) {
	f := p.pdf
	if even {
		f.SetFillColor(249, 250, 251)
	} else {
		f.SetFillColor(255, 247, 244)
	}
	f.Rect(x, y, w, h, "F")
	f.SetFillColor(p.accent.r, p.accent.g, p.accent.b)
	f.Rect(x, y, 1, h, "F")

	f.SetXY(x+4, y+3)
	f.SetFont(fontFamily, "B", 9)
	p.color(darkColor)
	f.CellFormat(w-8, 5, p.tr(s.Title), "", 2, "L", false, 0, "")
	f.SetX(x + 4)
	f.SetFont(fontFamily, "", 8)
	f.SetTextColor(85, 85, 85)
	f.MultiCell(w-8, 4, p.tr(s.Desc), "", "L", false)
}

func (p *painter) section(page render.Page) {
	p.pdf.AddPage()
	p.title(fmt.Sprintf("%d. %s", page.Number, page.Title))
	for _, n := range page.Nodes {
		p.node(n)
	}
}

func (p *painter) node(n layout.Node) {
	f := p.pdf
	switch n.Kind {
	case layout.KindSpacer:
		f.Ln(2)
	case layout.KindRule:
		p.ensureSpace(4)
		f.SetDrawColor(220, 220, 220)
		f.Line(margin, f.GetY()+1.5, margin+p.width, f.GetY()+1.5)
		f.Ln(4)
	case layout.KindHeading1:
		p.heading(n.Text, 15)
	case layout.KindHeading3:
		p.heading(n.Text, 12)
	case layout.KindHeading4:
		p.heading(n.Text, 10.5)
	case layout.KindBoldHeading:
		p.heading(n.Text, p.doc.Options.BodyFontSize)
	case layout.KindBanner:
		p.banner(n.Text)
	case layout.KindBullet:
		p.listItem(n, "")
	case layout.KindNumbered:
		p.listItem(n, n.Number+".")
	case layout.KindTable:
		p.table(n)
	default:
		size := fontSize(n.FontSize, p.doc.Options.BodyFontSize)
		lh := lineHeight(size)
		p.ensureSpace(lh)
		f.SetX(margin)
		p.runs(n.Runs, size, lh)
		f.Ln(lh)
	}
}

func (p *painter) heading(text string, size float64) {
	f := p.pdf
	lh := lineHeight(size)
	// 标题和后面至少一行正文放在同一页
	p.ensureSpace(lh * 2)
	f.SetFont(fontFamily, "B", size)
	p.color(darkColor)
	f.SetX(margin)
	f.MultiCell(p.width, lh, p.tr(text), "", "L", false)
	f.Ln(1)
}

// banner 深色横条 + 白色大写文字
func (p *painter) banner(text string) {
	f := p.pdf
	p.ensureSpace(12)
	f.Ln(2)
	dark := parseHex(darkColor, rgb{})
	f.SetFillColor(dark.r, dark.g, dark.b)
	f.SetTextColor(255, 255, 255)
	f.SetFont(fontFamily, "B", 9)
	f.SetX(margin)
	f.CellFormat(p.width, 7, "  "+p.tr(strings.ToUpper(text)), "", 1, "L", true, 0, "")
	f.Ln(2)
}

// listItem 列表项整体放在同一页
func (p *painter) listItem(n layout.Node, marker string) {
	f := p.pdf
	size := fontSize(n.FontSize, layout.ListFontSize)
	lh := lineHeight(size)
	indent := 6.0

	f.SetFont(fontFamily, "B", size)
	lines := len(f.SplitText(p.tr(n.PlainText()), p.width-indent))
	p.ensureSpace(float64(max(lines, 1)) * lh)

	accent := parseHex(n.Accent, p.accent)
	y := f.GetY()
	if marker == "" {
		f.SetFillColor(accent.r, accent.g, accent.b)
		f.Circle(margin+2, y+lh/2, 0.7, "F")
	} else {
		f.SetXY(margin, y)
		f.SetTextColor(accent.r, accent.g, accent.b)
		f.CellFormat(indent, lh, marker, "", 0, "L", false, 0, "")
	}

	f.SetLeftMargin(margin + indent)
	f.SetXY(margin+indent, y)
	p.runs(n.Runs, size, lh)
	f.SetLeftMargin(margin)
	f.Ln(lh)
}

// runs 按片段切换粗细，文字自动换行
func (p *painter) runs(runs []layout.Run, size, lh float64) {
	f := p.pdf
	p.color(bodyColor)
	for _, r := range runs {
		style := ""
		if r.Bold {
			style = "B"
		}
		f.SetFont(fontFamily, style, size)
		f.Write(lh, p.tr(r.Text))
	}
}

// table 表头深色；每行整行放在同一页，分页后重画表头
func (p *painter) table(n layout.Node) {
	f := p.pdf
	cols := len(n.Headers)
	if cols == 0 {
		return
	}
	colW := p.width / float64(cols)
	size := 8.5
	lh := lineHeight(size)

	drawHeader := func() {
		dark := parseHex(darkColor, rgb{})
		f.SetFillColor(dark.r, dark.g, dark.b)
		f.SetTextColor(255, 255, 255)
		f.SetFont(fontFamily, "B", size)
		f.SetX(margin)
		for _, h := range n.Headers {
			f.CellFormat(colW, lh+2, p.tr(h), "", 0, "L", true, 0, "")
		}
		f.Ln(lh + 2)
	}

	p.ensureSpace(2*(lh+2) + 2)
	f.Ln(1)
	drawHeader()
	for i, row := range n.Rows {
		f.SetFont(fontFamily, "", size)
		lines := 1
		for c := 0; c < cols && c < len(row); c++ {
			lines = max(lines, len(f.SplitText(p.tr(row[c]), colW-2)))
		}
		rowH := float64(lines)*lh + 2
		if p.ensureSpace(rowH) {
			drawHeader()
			f.SetFont(fontFamily, "", size)
		}

		y := f.GetY()
		if i%2 == 1 {
			f.SetFillColor(249, 250, 251)
			f.Rect(margin, y, p.width, rowH, "F")
		}
		p.color(bodyColor)
		for c := 0; c < cols; c++ {
			text := ""
			if c < len(row) {
				text = row[c]
			}
			f.SetXY(margin+float64(c)*colW+1, y+1)
			f.MultiCell(colW-2, lh, p.tr(text), "", "L", false)
		}
		f.SetDrawColor(238, 238, 238)
		f.Line(margin, y+rowH, margin+p.width, y+rowH)
		f.SetXY(margin, y+rowH)
	}
	f.Ln(2)
}

// ensureSpace 剩余空间不足 h 时换页，返回是否换了页
func (p *painter) ensureSpace(h float64) bool {
	f := p.pdf
	_, pageH := f.GetPageSize()
	_, bottom := f.GetAutoPageBreak()
	if f.GetY()+h <= pageH-bottom {
		return false
	}
	f.AddPage()
	return true
}

func (p *painter) color(hex string) {
	c := parseHex(hex, rgb{51, 51, 51})
	p.pdf.SetTextColor(c.r, c.g, c.b)
}

// parseHex 解析 #RRGGBB，失败返回 def
func parseHex(hex string, def rgb) rgb {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return def
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return def
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}

func fontSize(size, def float64) float64 {
	if size > 0 {
		return size
	}
	if def > 0 {
		return def
	}
	return layout.DefaultBodyFontSize
}

func lineHeight(size float64) float64 {
	return size * ptToMM * lineFactor
}

func orDash(s string) string {
	return orDefault(s, "-")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
