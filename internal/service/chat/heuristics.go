package chat

import (
	"regexp"
	"strings"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/utils"
)

// 介绍章节纯文字兜底的最小长度
const minIntroductionProse = 100

var (
	clientNameFieldRe   = regexp.MustCompile(`"clientName"\s*:\s*"([^"]+)"`)
	projectTitleFieldRe = regexp.MustCompile(`"projectTitle"\s*:\s*"([^"]+)"`)
	briefClientRe       = regexp.MustCompile(`\bfor\s+([A-Z][A-Za-z0-9\s&.,-]{1,40}?)(?:\s+(?:company|client|platform|app|website|portal|project)|[,.\n]|$)`)

	introLooksGoodRe = regexp.MustCompile(`(?is)\**does this introduction look good.*$`)
	introChangesRe   = regexp.MustCompile(`(?is)\**would you like any changes.*$`)
)

// extraction 从一轮完整回复中得到的结果
type extraction struct {
	outcome Outcome
	source  string
	data    domain.SectionData
	// 封面章节需要同步到顶层字段
	clientName   *string
	projectTitle *string
}

// extractSection 按章节规则解析完整回复，不修改任何状态
// p 用于读取 projectBrief/clientName 做封面兜底
func extractSection(key domain.SectionKey, text string, p *domain.Proposal) extraction {
	obj, src, err := utils.ExtractJSONObject(text)
	if err == nil {
		// 只有 {"confirmed": true} 才是单纯的确认；带其他字段时照常合并
		if confirmed, ok := obj["confirmed"].(bool); ok && confirmed {
			if len(obj) == 1 {
				return extraction{outcome: OutcomeAcknowledged, source: src.String()}
			}
			delete(obj, "confirmed")
		}
	}

	switch key {
	case domain.SectionCoverPage:
		source := src.String()
		if err != nil {
			obj = coverFromText(text, p)
			source = "heuristic"
		}
		if obj == nil {
			return extraction{outcome: OutcomeNoData}
		}
		ex := extraction{outcome: OutcomeApplied, source: source, data: domain.SectionData(obj)}
		if s, ok := obj["clientName"].(string); ok {
			ex.clientName = &s
		}
		if s, ok := obj["projectTitle"].(string); ok {
			ex.projectTitle = &s
		}
		return ex

	case domain.SectionIntroduction:
		if err != nil {
			prose := introProse(text)
			if len([]rune(prose)) > minIntroductionProse {
				return extraction{outcome: OutcomeApplied, source: "heuristic", data: domain.SectionData{"content": prose}}
			}
			return extraction{outcome: OutcomeNoData}
		}
	}

	if err != nil {
		return extraction{outcome: OutcomeNoData}
	}
	return extraction{outcome: OutcomeApplied, source: src.String(), data: domain.SectionData(obj)}
}

// coverFromText 回复里没有 JSON 时，从文字或项目简介中找客户名
func coverFromText(text string, p *domain.Proposal) map[string]any {
	client := clientNameFieldRe.FindStringSubmatch(text)
	title := projectTitleFieldRe.FindStringSubmatch(text)
	if client != nil && title != nil {
		return map[string]any{"clientName": client[1], "projectTitle": title[1]}
	}

	if p == nil || p.ProjectBrief == "" || p.ClientName != "" {
		return nil
	}
	if m := briefClientRe.FindStringSubmatch(p.ProjectBrief); m != nil {
		return map[string]any{
			"clientName":   strings.TrimSpace(m[1]),
			"projectTitle": p.ProjectTitle,
		}
	}
	return nil
}

// introProse 去掉结尾的确认提问，剩下的正文作为介绍内容
func introProse(text string) string {
	prose := introLooksGoodRe.ReplaceAllString(text, "")
	prose = introChangesRe.ReplaceAllString(prose, "")
	return strings.TrimSpace(prose)
}
