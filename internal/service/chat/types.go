package chat

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/statemachine"
)

// ErrTurnInFlight 已有一轮对话在进行，新的输入直接拒绝，不排队
var ErrTurnInFlight = errors.New("a chat turn is already in progress")

// MaxUserMessageLength 单条用户消息的最大长度
const MaxUserMessageLength = 4000

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 会话记录中的一条消息，只追加不改写
type Message struct {
	ID         string            `json:"id"`
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Timestamp  time.Time         `json:"timestamp"`
	SectionKey domain.SectionKey `json:"sectionKey"`
}

// HistoryEntry 发给 AI 的历史消息
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnContext 随请求发送的提案上下文
// CurrentSectionData 是当前章节的真实数据，AI 应在此基础上修改而不是重新生成
type TurnContext struct {
	ClientName         string              `json:"clientName"`
	ProjectTitle       string              `json:"projectTitle"`
	ProjectBrief       string              `json:"projectBrief"`
	ConfirmedSections  []domain.SectionKey `json:"confirmedSections"`
	CurrentSection     domain.SectionKey   `json:"currentSection"`
	CurrentSectionData domain.SectionData  `json:"currentSectionData"`
}

// TurnRequest 一轮对话的请求
type TurnRequest struct {
	ProposalID  string            `json:"proposalId"`
	SectionKey  domain.SectionKey `json:"sectionKey"`
	UserMessage string            `json:"userMessage"`
	Context     TurnContext       `json:"proposalContext"`
	History     []HistoryEntry    `json:"conversationHistory"`
}

// Validate 校验请求字段
func (r TurnRequest) Validate() error {
	if !domain.IsValid(r.SectionKey) {
		return domain.NewValidationError("sectionKey", "unknown section "+string(r.SectionKey))
	}
	n := len([]rune(r.UserMessage))
	if n == 0 {
		return domain.NewValidationError("userMessage", "must not be empty")
	}
	if n > MaxUserMessageLength {
		return domain.NewValidationError("userMessage", "must be at most 4000 characters")
	}
	for _, h := range r.History {
		if h.Role != RoleUser && h.Role != RoleAssistant {
			return domain.NewValidationError("conversationHistory", "unknown role "+string(h.Role))
		}
	}
	return nil
}

// Collaborator AI 协作方：请求进，文本流出
// 流以 io.EOF 结束，其他错误视为流内错误
type Collaborator interface {
	Stream(ctx context.Context, req TurnRequest) (*schema.StreamReader[*schema.Message], error)
}

// Chunk 推给前端的增量文本
type Chunk struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
}

// Sink 接收增量文本，可以为 nil
type Sink func(Chunk)

func (s Sink) emit(c Chunk) {
	if s != nil {
		s(c)
	}
}

// Outcome 一轮对话的结果
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"      // 提取到数据并已合并
	OutcomeAcknowledged Outcome = "acknowledged" // 只有 {"confirmed": true}
	OutcomeNoData       Outcome = "no_data"      // 纯文字回复
	OutcomeFailed       Outcome = "failed"
	OutcomeOffline      Outcome = "offline"
	OutcomeCanceled     Outcome = "canceled"
)

// TurnResult 返回给调用方的本轮结果
type TurnResult struct {
	MessageID      string                 `json:"messageId,omitempty"`
	SectionKey     domain.SectionKey      `json:"sectionKey"`
	State          statemachine.TurnState `json:"state"`
	Outcome        Outcome                `json:"outcome"`
	Source         string                 `json:"source,omitempty"`
	ManualFallback bool                   `json:"manualFallback"`
	Error          string                 `json:"error,omitempty"`
	NextPending    bool                   `json:"nextPending"`
}

// ManualTrigger 手动录入的触发原因
type ManualTrigger string

const (
	ManualOffline ManualTrigger = "offline"
	ManualError   ManualTrigger = "error"
)

// ManualForm 手动录入表单，预填当前章节数据
type ManualForm struct {
	SectionKey domain.SectionKey  `json:"sectionKey"`
	Title      string             `json:"title"`
	Trigger    ManualTrigger      `json:"trigger"`
	Data       domain.SectionData `json:"data"`
}

// State 会话状态快照
type State struct {
	ProposalID      string                       `json:"proposalId"`
	TurnState       statemachine.TurnState       `json:"turnState"`
	Offline         bool                         `json:"offline"`
	PendingAdvance  bool                         `json:"pendingAdvance"`
	ManualAvailable bool                         `json:"manualAvailable"`
	Progress        statemachine.SectionProgress `json:"progress"`
	Messages        []Message                    `json:"messages"`
	Proposal        *domain.Proposal             `json:"proposal"`
}
