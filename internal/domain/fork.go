package domain

import (
	"fmt"
	"time"
)

// Fork 基于已有提案派生新版本
// 章节数据整体深拷贝带过去，只重置状态标记；封面的 version/date 会被改写。
// 返回的提案没有 ID，由存储层分配。
func Fork(src *Proposal, sessionID string, now time.Time) *Proposal {
	next := src.Clone()
	next.Normalize(now)

	for _, sec := range next.Sections {
		sec.Status = SectionPending
		sec.AIGenerated = false
		sec.UserModified = false
	}

	next.ID = ""
	next.SessionID = sessionID
	next.Version = src.Version + 1
	if src.Version < 1 {
		next.Version = 2
	}
	next.ParentID = src.ID
	next.Status = ProposalDraft
	next.CurrentSection = FirstSection()
	next.ConfirmedSections = []SectionKey{}
	next.CreatedAt = now
	next.UpdatedAt = now

	cover := next.Sections[SectionCoverPage]
	cover.Data["version"] = fmt.Sprintf("%d.0", next.Version)
	cover.Data["date"] = now.Format(CoverDateLayout)

	return next
}
