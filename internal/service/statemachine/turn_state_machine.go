package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// TurnState 单轮对话的状态
type TurnState string

const (
	TurnIdle      TurnState = "idle"      // 空闲，可以发起新一轮
	TurnSending   TurnState = "sending"   // 正在构造请求并调用 AI
	TurnStreaming TurnState = "streaming" // 正在读取流式输出
	TurnApplying  TurnState = "applying"  // 流已结束，正在合并数据
	TurnFailed    TurnState = "failed"    // 本轮失败，等待手动录入或重新发送
)

// TurnTransition 状态迁移
type TurnTransition struct {
	From TurnState
	To   TurnState
}

// TurnStateMachine 对话轮次状态机
type TurnStateMachine struct {
	allowedTransitions map[TurnTransition]bool
}

// NewTurnStateMachine 创建对话轮次状态机
func NewTurnStateMachine() *TurnStateMachine {
	sm := &TurnStateMachine{
		allowedTransitions: make(map[TurnTransition]bool),
	}

	// idle/failed -> sending -> streaming -> applying -> idle
	// sending/streaming -> failed（网络错误、非 2xx、流内错误）
	// sending/streaming -> idle（调用方取消）
	// failed -> idle（手动录入、跳转）
	transitions := []TurnTransition{
		{TurnIdle, TurnSending},
		{TurnSending, TurnStreaming},
		{TurnStreaming, TurnApplying},
		{TurnApplying, TurnIdle},

		{TurnSending, TurnFailed},
		{TurnStreaming, TurnFailed},

		{TurnSending, TurnIdle},
		{TurnStreaming, TurnIdle},

		{TurnFailed, TurnSending},
		{TurnFailed, TurnIdle},
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition 检查状态迁移是否合法
func (sm *TurnStateMachine) CanTransition(from, to TurnState) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[TurnTransition{From: from, To: to}]
}

// ValidateTransition 验证状态迁移并返回错误
func (sm *TurnStateMachine) ValidateTransition(from, to TurnState) error {
	if !sm.CanTransition(from, to) {
		return &InvalidStateTransitionError{
			From: string(from),
			To:   string(to),
		}
	}
	return nil
}

// Transition 执行状态迁移（带日志）
func (sm *TurnStateMachine) Transition(from, to TurnState, proposalID string) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		klog.V(6).Infof("对话状态迁移被拒绝: proposalID=%s, %s -> %s, error=%v",
			proposalID, from, to, err)
		return err
	}

	klog.V(6).Infof("对话状态迁移: proposalID=%s, %s -> %s", proposalID, from, to)
	return nil
}

// InvalidStateTransitionError 无效的状态迁移错误
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid turn state transition: %s -> %s", e.From, e.To)
}

// InFlight 是否有一轮对话正在进行
func InFlight(state TurnState) bool {
	return state == TurnSending || state == TurnStreaming || state == TurnApplying
}
