package render

import (
	"strings"
	"testing"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func TestEverySectionHasComposer(t *testing.T) {
	for _, key := range domain.SectionKeys() {
		_, ok := composers[key]
		assert.True(t, ok, "章节缺少组装函数: %s", key)
	}
	assert.Len(t, composers, len(domain.SectionKeys()))
}

func TestDefaultsComposeWithoutFallback(t *testing.T) {
	for _, key := range domain.SectionKeys() {
		md, err := composers[key](domain.DefaultSectionData(key, testNow))
		require.NoError(t, err, "默认数据应能按固定形状解析: %s", key)
		assert.NotEmpty(t, md, key)
	}
}

func TestComposeCostEstimation(t *testing.T) {
	md := SectionMarkdown(domain.SectionCostEstimation, domain.DefaultSectionData(domain.SectionCostEstimation, testNow))
	nodes := layout.Render(md, layout.Options{})

	require.Equal(t, layout.KindTable, nodes[0].Kind)
	assert.Equal(t, []string{"Product", "Estimated Time", "Estimated Cost"}, nodes[0].Headers)
	require.Len(t, nodes[0].Rows, 2)
	// 多行产品名合并为一个单元格
	assert.True(t, strings.HasPrefix(nodes[0].Rows[1][0], "Google Map API, Payment gateway"))
	assert.Equal(t, "Shared By Client", nodes[0].Rows[1][2])

	text := layout.PlainText(nodes)
	assert.Contains(t, text, "Total Estimated Cost: INR 3,50,000 + 18% GST")
	assert.Contains(t, text, "This quote is valid for 30 days from the date of issue.")
}

func TestComposeKeyModulesLegacyGroups(t *testing.T) {
	data := domain.SectionData{
		"groups": []any{
			map[string]any{"groupName": "USER APP", "features": []any{
				map[string]any{"label": "Login", "checked": true},
				map[string]any{"label": "Chat", "checked": false},
			}},
			map[string]any{"groupName": "EMPTY", "features": []any{}},
		},
		"customFeatures": []any{"Referral program"},
	}
	nodes := layout.Render(SectionMarkdown(domain.SectionKeyModules, data), layout.Options{})

	kinds := make([]layout.Kind, 0, len(nodes))
	for _, n := range nodes {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []layout.Kind{
		layout.KindBanner, layout.KindBullet, layout.KindSpacer, layout.KindBanner, layout.KindBullet,
	}, kinds)
	assert.Equal(t, "USER APP", nodes[0].Text)
	assert.Equal(t, "Login", nodes[1].PlainText())
	assert.Equal(t, "Referral program", nodes[4].PlainText())
}

func TestComposePlaceholders(t *testing.T) {
	assert.Equal(t, IntroductionPlaceholder, SectionMarkdown(domain.SectionIntroduction, domain.SectionData{}))
	assert.Equal(t, "Hello", SectionMarkdown(domain.SectionIntroduction, domain.SectionData{"content": "Hello"}))

	assert.Equal(t, KeyModulesPlaceholder, SectionMarkdown(domain.SectionKeyModules, domain.DefaultSectionData(domain.SectionKeyModules, testNow)))
	// 分组都没有勾选项时同样显示占位
	unchecked := domain.SectionData{"groups": []any{
		map[string]any{"groupName": "USER APP", "features": []any{map[string]any{"label": "Chat", "checked": false}}},
	}}
	assert.Equal(t, KeyModulesPlaceholder, SectionMarkdown(domain.SectionKeyModules, unchecked))
}

func TestComposeFallsBackToGeneric(t *testing.T) {
	// periodDays 类型不对，无法按固定形状解析
	data := domain.SectionData{"periodDays": "thirty", "note": "x"}
	md := SectionMarkdown(domain.SectionWarranty, data)
	assert.Equal(t, "- **note:** x\n- **periodDays:** thirty\n", md)
}

func TestComposeLegalSignOffSignatures(t *testing.T) {
	data := domain.DefaultSectionData(domain.SectionLegalSignOff, testNow)
	data["clientSignatureName"] = "Jane Roe, CEO"
	nodes := layout.Render(SectionMarkdown(domain.SectionLegalSignOff, data), layout.Options{})

	var table *layout.Node
	for i := range nodes {
		if nodes[i].Kind == layout.KindTable {
			table = &nodes[i]
		}
	}
	require.NotNil(t, table, "签字区应为表格")
	assert.Equal(t, []string{"CLIENT", HeaderBrand}, table.Headers)
	assert.Equal(t, "Jane Roe, CEO", table.Rows[0][0])
	assert.Equal(t, "Authorized Signatory, "+domain.CompanyName, table.Rows[0][1])
}

func TestComposeOnlyConfirmedSections(t *testing.T) {
	p := domain.NewProposal("p-1", "s-1", testNow)
	p.ClientName = "Acme"
	p.ConfirmedSections = []domain.SectionKey{domain.SectionCoverPage, domain.SectionTechStack, domain.SectionIntroduction}
	p.Section(domain.SectionIntroduction).Data = domain.SectionData{"content": "We build things."}

	doc := Compose(p, layout.Options{})

	require.Len(t, doc.Pages, 2)
	assert.Equal(t, domain.SectionIntroduction, doc.Pages[0].Key)
	assert.Equal(t, domain.SectionTechStack, doc.Pages[1].Key)
	assert.Equal(t, 4, doc.Pages[1].Number)
	assert.Equal(t, "Acme", doc.Cover.ClientName, "封面客户名回退到提案字段")
	assert.Equal(t, layout.DefaultAccentColor, doc.Options.AccentColor)
	assert.Equal(t, StyleFor(domain.ThemeDefault), doc.Style)
}

func TestComposeNilProposal(t *testing.T) {
	doc := Compose(nil, layout.Options{})
	assert.Empty(t, doc.Pages)
	assert.Equal(t, "Client", doc.ClientLabel())
}

func TestStyleForUnknownTheme(t *testing.T) {
	assert.Equal(t, "#3B82F6", StyleFor(domain.ThemeDarkBlue).Accent)
	assert.Equal(t, StyleFor(domain.ThemeDefault), StyleFor("neon"))
}

func TestDocumentPlainText(t *testing.T) {
	p := domain.NewProposal("p-1", "s-1", testNow)
	p.ProjectTitle = "Fleet App"
	p.ConfirmedSections = []domain.SectionKey{domain.SectionWarranty}

	text := Compose(p, layout.Options{}).PlainText()
	assert.Contains(t, text, "Fleet App")
	assert.Contains(t, text, "# Warranty")
	assert.Contains(t, text, "Warranty Period: 30 Days")
	assert.Contains(t, text, "- 30 Days Warranty for Bug Fixes")
}
