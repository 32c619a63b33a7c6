package subscriber

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// ErrAutosaveStopped 订阅者已关闭
var ErrAutosaveStopped = errors.New("autosave subscriber is stopped")

type snapshotSaver interface {
	SaveSnapshot(ctx context.Context, p *domain.Proposal) error
}

// AutosaveSubscriber 把会话内的提案快照异步写回存储
// 写入失败只记录日志，不影响对话
type AutosaveSubscriber struct {
	saver   snapshotSaver
	pool    *ants.Pool
	timeout time.Duration

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	lastSeq  map[string]uint64
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAutosaveSubscriber 创建自动保存订阅者，workers 为并发写入的协程数
func NewAutosaveSubscriber(saver snapshotSaver, workers int) (*AutosaveSubscriber, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(1000),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		klog.Errorf("autosave pool initialization failed: %v", err)
		return nil, err
	}
	return &AutosaveSubscriber{
		saver:   saver,
		pool:    pool,
		timeout: 10 * time.Second,
		locks:   make(map[string]*sync.Mutex),
		lastSeq: make(map[string]uint64),
	}, nil
}

func (s *AutosaveSubscriber) Register(bus *eventbus.ProposalEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.ProposalEventTurnApplied, s.handleSnapshot)
	bus.Subscribe(eventbus.ProposalEventManualSubmitted, s.handleSnapshot)
	bus.Subscribe(eventbus.ProposalEventSectionConfirmed, s.handleSnapshot)
	bus.Subscribe(eventbus.ProposalEventProposalCompleted, s.handleSnapshot)
	bus.Subscribe(eventbus.ProposalEventRevisionCreated, s.handleRevisionCreated)
}

// handleSnapshot 投递到协程池，发布方不等待写入结果
func (s *AutosaveSubscriber) handleSnapshot(ctx context.Context, event eventbus.ProposalEvent) error {
	if event.Snapshot == nil || event.ProposalID == "" {
		return nil
	}
	snapshot := event.Snapshot.Clone()

	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		s.save(event, snapshot)
	})
	if err != nil {
		s.wg.Done()
		klog.Errorf("自动保存投递失败: type=%s, proposalID=%s, error=%v", event.Type, event.ProposalID, err)
	}
	return nil
}

func (s *AutosaveSubscriber) save(event eventbus.ProposalEvent, snapshot *domain.Proposal) {
	lock := s.lockFor(event.ProposalID)
	lock.Lock()
	defer lock.Unlock()

	if s.isStale(event.ProposalID, event.Seq) {
		klog.V(6).Infof("跳过过期快照: proposalID=%s, seq=%d", event.ProposalID, event.Seq)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.saver.SaveSnapshot(ctx, snapshot); err != nil {
		klog.Errorf("自动保存失败: type=%s, proposalID=%s, error=%v", event.Type, event.ProposalID, err)
		return
	}
	s.markSaved(event.ProposalID, event.Seq)
	klog.V(6).Infof("自动保存成功: type=%s, proposalID=%s, section=%s, seq=%d", event.Type, event.ProposalID, event.SectionKey, event.Seq)
}

func (s *AutosaveSubscriber) handleRevisionCreated(ctx context.Context, event eventbus.ProposalEvent) error {
	klog.V(6).Infof("修订版本已创建: proposalID=%s, parentID=%s", event.ProposalID, event.ParentID)
	return nil
}

func (s *AutosaveSubscriber) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// seq 为 0 表示调用方不关心顺序
func (s *AutosaveSubscriber) isStale(id string, seq uint64) bool {
	if seq == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq <= s.lastSeq[id]
}

func (s *AutosaveSubscriber) markSaved(id string, seq uint64) {
	if seq == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.lastSeq[id] {
		s.lastSeq[id] = seq
	}
}

// Flush 等待已投递的保存全部结束
func (s *AutosaveSubscriber) Flush() {
	s.wg.Wait()
}

// Stop 等待进行中的保存完成并释放协程池
func (s *AutosaveSubscriber) Stop() {
	s.stopOnce.Do(func() {
		s.wg.Wait()
		if err := s.pool.ReleaseTimeout(30 * time.Second); err != nil {
			klog.Warningf("autosave pool release timeout: %v", err)
		}
		klog.V(6).Infof("Autosave subscriber stopped")
	})
}
