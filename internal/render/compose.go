package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"k8s.io/klog/v2"
)

// composeFunc 把章节数据写成受限 markdown，再交给 layout.Render
type composeFunc func(data domain.SectionData) (string, error)

// composers 每个章节一个，测试保证覆盖全部章节
var composers = map[domain.SectionKey]composeFunc{
	domain.SectionCoverPage:          typed(composeCover),
	domain.SectionIntroduction:       typed(composeIntroduction),
	domain.SectionKeyModules:         typed(composeKeyModules),
	domain.SectionTechStack:          typed(composeTechStack),
	domain.SectionDeliveryComponents: typed(composeDeliveryComponents),
	domain.SectionCostEstimation:     typed(composeCostEstimation),
	domain.SectionProposedTeam:       typed(composeProposedTeam),
	domain.SectionAMC:                typed(composeAMC),
	domain.SectionSLA:                typed(composeSLA),
	domain.SectionChangeRequest:      typed(composeChangeRequest),
	domain.SectionAcceptanceCriteria: typed(composeAcceptanceCriteria),
	domain.SectionWarranty:           typed(composeWarranty),
	domain.SectionLegalSignOff:       typed(composeLegalSignOff),
}

func typed[T any](fn func(T) string) composeFunc {
	return func(data domain.SectionData) (string, error) {
		v, err := domain.DecodeSection[T](data)
		if err != nil {
			return "", err
		}
		return fn(v), nil
	}
}

// SectionMarkdown 章节数据对应的 markdown
// 数据形状与章节不匹配时退回通用的 "字段: 值" 列表
func SectionMarkdown(key domain.SectionKey, data domain.SectionData) string {
	fn, ok := composers[key]
	if !ok {
		return composeGeneric(data)
	}
	md, err := fn(data)
	if err != nil {
		klog.Warningf("[Render] 章节数据无法按固定形状解析，使用通用格式: section=%s, error=%v", key, err)
		return composeGeneric(data)
	}
	return md
}

func composeGeneric(data domain.SectionData) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- **%s:** %v\n", k, data[k])
	}
	return b.String()
}

func composeCover(d domain.CoverPageData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", orDash(d.ProjectTitle))
	fmt.Fprintf(&b, "**Prepared for:** %s\n", orDash(d.ClientName))
	fmt.Fprintf(&b, "**Prepared by:** %s\n", orDash(d.PreparedBy))
	fmt.Fprintf(&b, "**Date:** %s\n", orDash(d.Date))
	fmt.Fprintf(&b, "**Version:** %s\n", orDash(d.Version))
	return b.String()
}

func composeIntroduction(d domain.IntroductionData) string {
	if strings.TrimSpace(d.Content) == "" {
		return IntroductionPlaceholder
	}
	return d.Content
}

// composeKeyModules 新数据直接用 content；旧数据只有勾选分组
func composeKeyModules(d domain.KeyModulesData) string {
	if strings.TrimSpace(d.Content) != "" {
		return d.Content
	}
	var b strings.Builder
	for _, g := range d.Groups {
		checked := make([]string, 0, len(g.Features))
		for _, f := range g.Features {
			if f.Checked {
				checked = append(checked, f.Label)
			}
		}
		if len(checked) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", g.GroupName)
		for _, label := range checked {
			fmt.Fprintf(&b, "• %s\n", label)
		}
		b.WriteString("\n")
	}
	if len(d.CustomFeatures) > 0 {
		b.WriteString("## Additional Features\n")
		for _, f := range d.CustomFeatures {
			fmt.Fprintf(&b, "• %s\n", f)
		}
	}
	if b.Len() == 0 {
		return KeyModulesPlaceholder
	}
	return strings.TrimRight(b.String(), "\n")
}

func composeTechStack(d domain.TechStackData) string {
	rows := make([][]string, 0, len(d.Items))
	for _, item := range d.Items {
		if item.Checked {
			rows = append(rows, []string{item.Category, item.Technology})
		}
	}
	return table([]string{"Category", "Technology"}, rows)
}

func composeDeliveryComponents(d domain.DeliveryComponentsData) string {
	var b strings.Builder
	b.WriteString("The following components are included in the delivery:\n\n")
	for _, c := range d.Components {
		if c.Included {
			fmt.Fprintf(&b, "- %s\n", c.Name)
		}
	}
	return b.String()
}

func composeCostEstimation(d domain.CostEstimationData) string {
	rows := make([][]string, 0, len(d.LineItems))
	for _, item := range d.LineItems {
		rows = append(rows, []string{item.Product, orDash(item.EstimatedTime), orDash(item.EstimatedCost)})
	}

	currency := d.Currency
	if currency == "" {
		currency = "INR"
	}
	var b strings.Builder
	b.WriteString(table([]string{"Product", "Estimated Time", "Estimated Cost"}, rows))
	fmt.Fprintf(&b, "\n**Total Estimated Cost:** %s %s + %s%% GST\n", currency, orDash(d.TotalProjectCost),
		strconv.FormatFloat(d.GST, 'f', -1, 64))
	if d.PaymentTerms != "" {
		fmt.Fprintf(&b, "\n**Payment Terms:** %s\n", d.PaymentTerms)
	}
	if d.ValidityDays > 0 {
		fmt.Fprintf(&b, "\nThis quote is valid for %d days from the date of issue.\n", d.ValidityDays)
	}
	return b.String()
}

func composeProposedTeam(d domain.ProposedTeamData) string {
	rows := make([][]string, 0, len(d.Members))
	total := 0
	for _, m := range d.Members {
		rows = append(rows, []string{m.Role, strconv.Itoa(m.Count)})
		total += m.Count
	}
	var b strings.Builder
	b.WriteString(table([]string{"Role", "Count"}, rows))
	fmt.Fprintf(&b, "\n**Team Size:** %d\n", total)
	if d.TotalDuration != "" {
		fmt.Fprintf(&b, "\n**Total Duration:** %s\n", d.TotalDuration)
	}
	return b.String()
}

func composeAMC(d domain.AMCData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Annual Maintenance is charged at **%s%%** of the total project cost.\n\n",
		strconv.FormatFloat(d.Percentage, 'f', -1, 64))
	fmt.Fprintf(&b, "**Billing Period:** %s\n\n", orDefault(d.Period, "Annual"))
	writeList(&b, "Inclusions", d.Inclusions)
	if d.Note != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Note)
	}
	return b.String()
}

func composeSLA(d domain.SLAData) string {
	rows := make([][]string, 0, len(d.Tiers))
	for _, t := range d.Tiers {
		rows = append(rows, []string{t.Severity, t.ResponseTime, t.ResolutionTime})
	}
	var b strings.Builder
	b.WriteString(table([]string{"Severity", "Response Time", "Resolution Time"}, rows))
	if d.Uptime != "" {
		fmt.Fprintf(&b, "\n**Uptime:** %s\n", d.Uptime)
	}
	if d.MaintenanceWindow != "" {
		fmt.Fprintf(&b, "\n**Maintenance Window:** %s\n", d.MaintenanceWindow)
	}
	return b.String()
}

func composeChangeRequest(d domain.ChangeRequestData) string {
	var b strings.Builder
	b.WriteString("### Process\n")
	for i, step := range d.Process {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if d.LeadTime != "" {
		fmt.Fprintf(&b, "\n**Lead Time:** %s\n", d.LeadTime)
	}
	if d.CostingNote != "" {
		fmt.Fprintf(&b, "\n%s\n", d.CostingNote)
	}
	return b.String()
}

func composeAcceptanceCriteria(d domain.AcceptanceCriteriaData) string {
	var b strings.Builder
	if d.IntroText != "" {
		fmt.Fprintf(&b, "%s\n\n", d.IntroText)
	}
	for _, c := range d.Criteria {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	if d.ConclusionText != "" {
		fmt.Fprintf(&b, "\n%s\n", d.ConclusionText)
	}
	return b.String()
}

func composeWarranty(d domain.WarrantyData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Warranty Period:** %d Days\n\n", d.PeriodDays)
	writeList(&b, "Inclusions", d.Inclusions)
	if len(d.Exclusions) > 0 {
		b.WriteString("\n")
		writeList(&b, "Exclusions", d.Exclusions)
	}
	return b.String()
}

// composeLegalSignOff 签字区用两列表格表示，双方各占一列
func composeLegalSignOff(d domain.LegalSignOffData) string {
	client := orDefault(d.ClientSignatureName, "Authorized Signatory")
	company := orDefault(d.ArgosmobSignatureName, "Authorized Signatory, "+domain.CompanyName)

	var b strings.Builder
	if d.ComplianceStatement != "" {
		fmt.Fprintf(&b, "%s\n\n", d.ComplianceStatement)
	}
	b.WriteString("## Agreement & Authorization\n\n")
	b.WriteString(table([]string{"CLIENT", HeaderBrand}, [][]string{
		{client, company},
		{"Signature & Date", "Signature & Date"},
	}))
	fmt.Fprintf(&b, "\n---\n**%s**\n%s\n", domain.CompanyName, Website)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// table 生成 markdown 表格；单元格里的换行和竖线会破坏行结构，先替换掉
func table(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func cell(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.ReplaceAll(strings.Join(parts, ", "), "|", "/")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
