package subscriber

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replyCollaborator 每轮回复同一段文本
type replyCollaborator struct {
	text string
}

func (c *replyCollaborator) Stream(ctx context.Context, req chat.TurnRequest) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(c.text, nil)}), nil
}

type staticLoader struct {
	p *domain.Proposal
}

func (l staticLoader) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	return l.p.Clone(), nil
}

func TestAutosaveAfterSessionRebuilt(t *testing.T) {
	saver := &mockSaver{}
	sub, bus := newSubscriber(t, saver)
	ctx := context.Background()

	collab := &replyCollaborator{text: `{"clientName": "Old"}`}
	loader := staticLoader{p: domain.NewProposal("p1", "s1", time.Now())}
	m := chat.NewManager(loader, collab, bus)

	first, err := m.Get(ctx, "p1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = first.Send(ctx, "client is Old", nil)
		require.NoError(t, err)
	}
	sub.Flush()
	before := saver.count()
	require.Positive(t, before)

	m.Drop("p1")
	collab.text = `{"clientName": "New"}`
	second, err := m.Get(ctx, "p1")
	require.NoError(t, err)
	_, err = second.Send(ctx, "client is New", nil)
	require.NoError(t, err)
	sub.Flush()

	require.Equal(t, before+1, saver.count(), "重建会话后的修改应被保存")
	saver.mu.Lock()
	defer saver.mu.Unlock()
	assert.Equal(t, "New", saver.saved[len(saver.saved)-1].ClientName)
}
