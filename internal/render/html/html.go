package html

import (
	"bytes"
	"html/template"
	"io"
	"strings"

	"github.com/dixitakash2514/argos-mob-proposal/internal/render"
)

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Doc.Cover.ProjectTitle}} | {{.Doc.Company}}</title>
<style>
body{margin:0;font-family:Helvetica,Arial,sans-serif;color:#333;background:#f3f4f6}
.page{background:#fff;max-width:794px;margin:24px auto;padding:40px;box-shadow:0 1px 4px rgba(0,0,0,.08)}
.page-header{display:flex;justify-content:space-between;font-size:8px;color:#888;border-bottom:1px solid #eee;padding-bottom:6px;margin-bottom:20px}
.cover{color:#fff;padding:0}
.cover .bar{height:6px}
.cover .body{padding:56px}
.cover .label{font-size:9px;letter-spacing:1px}
.cover h1{font-size:36px;margin:12px 0 40px}
.section-title{font-size:18px;font-weight:bold;color:#0B1220;margin:0 0 4px}
.underline{width:40px;height:3px;margin-bottom:20px}
.banner{background:#0B1220;color:#fff;text-transform:uppercase;font-weight:bold;font-size:10px;padding:6px 10px;margin:12px 0 6px}
.bold-heading{font-weight:bold;margin:8px 0 4px}
ul,ol{margin:2px 0;padding-left:18px}
table{border-collapse:collapse;width:100%;font-size:9px;margin:6px 0}
th{background:#0B1220;color:#fff;text-align:left;padding:6px}
td{border-bottom:1px solid #eee;padding:6px}
.strengths{display:grid;grid-template-columns:1fr 1fr;gap:10px}
.strength{padding:8px 10px;border-radius:4px}
.commitment{background:#0B1220;color:#ccc;border-radius:6px;padding:16px;margin-top:20px;font-size:9px}
.page-footer{font-size:8px;color:#888;border-top:1px solid #eee;margin-top:24px;padding-top:6px;display:flex;justify-content:space-between}
</style>
</head>
<body>
<div class="page cover" style="background:{{.Doc.Style.Background}}">
  <div class="bar" style="background:{{.Doc.Style.Accent}}"></div>
  <div class="body">
    <div class="label" style="color:{{.Doc.Style.Accent}}">{{upper .Doc.Company}}</div>
    <h1>{{.Doc.Cover.ProjectTitle}}</h1>
    <div class="label" style="color:{{.Doc.Style.Subtext}}">PREPARED FOR</div>
    <div style="font-size:20px;font-weight:bold">{{.Doc.Cover.ClientName}}</div>
    <p>
      <span class="label" style="color:{{.Doc.Style.Subtext}}">PREPARED BY</span> {{.Doc.Cover.PreparedBy}}
      <span class="label" style="color:{{.Doc.Style.Subtext}}">DATE</span> {{.Doc.Cover.Date}}
      <span class="label" style="color:{{.Doc.Style.Subtext}}">VERSION</span> {{.Doc.Cover.Version}}
    </p>
  </div>
</div>
<div class="page">
  {{template "header" .}}
  <div class="section-title">Why Choose {{.Doc.Company}}</div>
  <div class="underline" style="background:{{.Doc.Options.AccentColor}}"></div>
  <div class="strengths">
  {{- range $i, $s := .Strengths}}
    <div class="strength" style="border-left:3px solid {{$.Doc.Options.AccentColor}};background:{{if even $i}}#F9FAFB{{else}}#FFF7F4{{end}}">
      <strong>{{$s.Title}}</strong>
      <div>{{$s.Desc}}</div>
    </div>
  {{- end}}
  </div>
  <div class="commitment"><strong style="color:{{.Doc.Options.AccentColor}}">Our Commitment</strong><p>{{.Commitment}}</p></div>
  {{template "footer" .}}
</div>
{{- range .Doc.Pages}}
<div class="page" id="{{.Key}}">
  {{template "header" $}}
  <div class="section-title">{{.Number}}. {{.Title}}</div>
  <div class="underline" style="background:{{$.Doc.Options.AccentColor}}"></div>
  {{- range .Nodes}}{{template "node" .}}{{end}}
  {{template "footer" $}}
</div>
{{- end}}
</body>
</html>
{{define "header"}}<div class="page-header"><span>{{.Brand}}</span><span>{{.Doc.ClientLabel}}</span></div>{{end}}
{{define "footer"}}<div class="page-footer"><span>{{.Doc.Company}}</span><span>{{.Website}}</span></div>{{end}}
{{define "runs"}}{{range .}}{{if .Bold}}<strong>{{.Text}}</strong>{{else}}{{.Text}}{{end}}{{end}}{{end}}
{{define "node"}}
{{- if eq .Kind "spacer"}}<br>
{{- else if eq .Kind "rule"}}<hr>
{{- else if eq .Kind "heading1"}}<h1>{{.Text}}</h1>
{{- else if eq .Kind "banner"}}<div class="banner">{{.Text}}</div>
{{- else if eq .Kind "heading3"}}<h3>{{.Text}}</h3>
{{- else if eq .Kind "heading4"}}<h4>{{.Text}}</h4>
{{- else if eq .Kind "boldHeading"}}<div class="bold-heading">{{.Text}}</div>
{{- else if eq .Kind "bullet"}}<ul style="font-size:{{.FontSize}}pt"><li style="color:{{.Accent}}"><span style="color:#333">{{template "runs" .Runs}}</span></li></ul>
{{- else if eq .Kind "numbered"}}<ol start="{{.Number}}" style="font-size:{{.FontSize}}pt"><li>{{template "runs" .Runs}}</li></ol>
{{- else if eq .Kind "table"}}<table><thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead><tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table>
{{- else}}<p style="font-size:{{.FontSize}}pt">{{template "runs" .Runs}}</p>
{{- end}}
{{- end}}`

var page = template.Must(template.New("proposal").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"even":  func(i int) bool { return i%2 == 0 },
}).Parse(documentTemplate))

type view struct {
	Doc        render.Document
	Strengths  []render.Strength
	Commitment string
	Brand      string
	Website    string
}

// Render 把文档绘制成单页 HTML 预览
func Render(w io.Writer, doc render.Document) error {
	// 先写入缓冲区，模板出错时不会输出半个页面
	var buf bytes.Buffer
	err := page.Execute(&buf, view{
		Doc:        doc,
		Strengths:  render.Strengths,
		Commitment: render.Commitment,
		Brand:      render.HeaderBrand,
		Website:    render.Website,
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
