package store

import (
	"sync"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"k8s.io/klog/v2"
)

// Field 可直接修改的顶层字段
type Field string

const (
	FieldClientName   Field = "clientName"
	FieldProjectTitle Field = "projectTitle"
	FieldProjectBrief Field = "projectBrief"
	FieldTheme        Field = "theme"
)

// Store 单个会话持有的提案状态
// 所有修改操作在未加载提案时都是空操作，不返回错误也不会 panic
type Store struct {
	mu       sync.RWMutex
	proposal *domain.Proposal
	now      func() time.Time
}

// New 创建空的 Store
func New() *Store {
	return &Store{now: time.Now}
}

// WithClock 替换时钟，测试用
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Init 初始化一个空白提案
func (s *Store) Init(id, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposal = domain.NewProposal(id, sessionID, s.now())
}

// Load 加载已有提案，缺失章节补默认值
func (s *Store) Load(p *domain.Proposal) {
	if p == nil {
		return
	}
	cp := p.Clone()
	cp.Normalize(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposal = cp
}

// Reset 清空状态
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposal = nil
}

// Loaded 是否已加载提案
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proposal != nil
}

// Snapshot 返回当前提案的深拷贝，未加载返回 nil
func (s *Store) Snapshot() *domain.Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proposal.Clone()
}

// Current 当前章节
func (s *Store) Current() domain.SectionKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.proposal == nil {
		return ""
	}
	return s.proposal.CurrentSection
}

// IsConfirmed 章节是否已确认
func (s *Store) IsConfirmed(key domain.SectionKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.proposal == nil {
		return false
	}
	return s.proposal.IsConfirmed(key)
}

// SectionData 返回章节数据副本
func (s *Store) SectionData(key domain.SectionKey) domain.SectionData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.proposal == nil {
		return nil
	}
	sec := s.proposal.Section(key)
	if sec == nil {
		return nil
	}
	return sec.Data.Clone()
}

// SetField 修改顶层字段，只做类型层面的校验
func (s *Store) SetField(field Field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposal == nil {
		return false
	}

	switch field {
	case FieldClientName:
		s.proposal.ClientName = value
	case FieldProjectTitle:
		s.proposal.ProjectTitle = value
	case FieldProjectBrief:
		s.proposal.ProjectBrief = value
	case FieldTheme:
		s.proposal.Theme = domain.Theme(value)
	default:
		klog.V(6).Infof("[Store] 忽略未知字段: %s", field)
		return false
	}
	s.proposal.UpdatedAt = s.now()
	return true
}

// MergeSectionData 浅合并章节数据，已有字段不在 partial 中时保留
func (s *Store) MergeSectionData(key domain.SectionKey, partial domain.SectionData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposal == nil {
		return false
	}
	sec := s.proposal.Section(key)
	if sec == nil {
		return false
	}

	if sec.Data == nil {
		sec.Data = domain.SectionData{}
	}
	for k, v := range partial {
		sec.Data[k] = v
	}
	if sec.Status != domain.SectionConfirmed {
		sec.Status = domain.SectionInProgress
	}
	sec.UserModified = true
	s.proposal.UpdatedAt = s.now()

	klog.V(6).Infof("[Store] 合并章节数据: proposal=%s, section=%s, fields=%d", s.proposal.ID, key, len(partial))
	return true
}

// MarkAIGenerated 标记章节数据来自 AI
func (s *Store) MarkAIGenerated(key domain.SectionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposal == nil {
		return false
	}
	sec := s.proposal.Section(key)
	if sec == nil {
		return false
	}
	sec.AIGenerated = true
	return true
}

// ConfirmSection 确认章节并把指针移到下一个章节
// 重复确认不会产生重复条目；最后一个章节确认后指针不动，提案变为 complete
func (s *Store) ConfirmSection(key domain.SectionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposal == nil {
		return false
	}
	sec := s.proposal.Section(key)
	if sec == nil {
		return false
	}

	if !s.proposal.IsConfirmed(key) {
		s.proposal.ConfirmedSections = append(s.proposal.ConfirmedSections, key)
	}
	sec.Status = domain.SectionConfirmed

	if next, ok := domain.Next(key); ok {
		s.proposal.CurrentSection = next
	} else {
		s.proposal.Status = domain.ProposalComplete
	}
	s.proposal.UpdatedAt = s.now()

	klog.V(6).Infof("[Store] 章节已确认: proposal=%s, section=%s, current=%s", s.proposal.ID, key, s.proposal.CurrentSection)
	return true
}

// JumpToSection 直接设置当前章节
// 只允许跳到已确认章节，由调用方保证
func (s *Store) JumpToSection(key domain.SectionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposal == nil || !domain.IsValid(key) {
		return false
	}
	s.proposal.CurrentSection = key
	return true
}
