package chat

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"k8s.io/klog/v2"
)

// ProposalLoader 按 ID 读取提案
type ProposalLoader interface {
	Get(ctx context.Context, id string) (*domain.Proposal, error)
}

// Manager 管理所有提案的会话，按需从存储加载
type Manager struct {
	loader       ProposalLoader
	collaborator Collaborator
	bus          *eventbus.ProposalEventBus
	opts         []Option

	mu       sync.Mutex
	sessions map[string]*Session
	// seqs 会话被丢弃后保留，重建的会话接着计数
	seqs map[string]*atomic.Uint64
}

// NewManager 创建会话管理器
func NewManager(loader ProposalLoader, collaborator Collaborator, bus *eventbus.ProposalEventBus, opts ...Option) *Manager {
	return &Manager{
		loader:       loader,
		collaborator: collaborator,
		bus:          bus,
		opts:         opts,
		sessions:     make(map[string]*Session),
		seqs:         make(map[string]*atomic.Uint64),
	}
}

// Get 获取会话，不存在时从存储加载
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	p, err := m.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// 并发加载时保留先放进去的那个
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	opts := append([]Option{WithSequence(m.sequenceLocked(id))}, m.opts...)
	s := NewSession(p, m.collaborator, m.bus, opts...)
	m.sessions[id] = s
	klog.V(6).Infof("[SessionManager] 加载会话: proposalID=%s, current=%s", id, p.CurrentSection)
	return s, nil
}

// Lookup 只查已加载的会话，不访问存储
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) sequenceLocked(id string) *atomic.Uint64 {
	seq, ok := m.seqs[id]
	if !ok {
		seq = new(atomic.Uint64)
		m.seqs[id] = seq
	}
	return seq
}

// Drop 丢弃会话，下次访问重新从存储加载
// 被丢弃的会话随即关闭，进行中的一轮结束后也不会再触发自动保存
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Reload 从存储重新读取提案并回放会话记录；会话不存在时等同于 Get
func (m *Manager) Reload(ctx context.Context, id string) (*Session, int, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		s, err := m.Get(ctx, id)
		return s, 0, err
	}

	p, err := m.loader.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	applied, err := s.Reload(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	return s, applied, nil
}

// Len 当前会话数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
