package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dixitakash2514/argos-mob-proposal/internal/domain"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"k8s.io/klog/v2"
)

// RemoteCollaborator 通过另一个实例的 /api/chat 获取回复
type RemoteCollaborator struct {
	URL    string
	Client *http.Client
}

// NewRemoteCollaborator 创建远程协作方
// 流式响应不设整体超时，由请求的 context 控制
func NewRemoteCollaborator(url string) *RemoteCollaborator {
	return &RemoteCollaborator{
		URL: url,
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 2 * time.Minute,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

var _ chat.Collaborator = (*RemoteCollaborator)(nil)

func (c *RemoteCollaborator) Stream(ctx context.Context, req chat.TurnRequest) (*schema.StreamReader[*schema.Message], error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.AICollaboratorError{Op: "remote", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, &domain.AICollaboratorError{Op: "remote", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		klog.V(6).Infof("[RemoteCollaborator] 非成功状态: status=%d, body=%s", resp.StatusCode, msg)
		return nil, &domain.AICollaboratorError{
			Op:  "remote",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)),
		}
	}

	sr, sw := schema.Pipe[*schema.Message](16)
	go func() {
		defer resp.Body.Close()
		defer sw.Close()
		pump(resp.Body, sw)
	}()
	return sr, nil
}

// pump 把 SSE 帧转成消息流；读端关闭后停止
func pump(r io.Reader, sw *schema.StreamWriter[*schema.Message]) {
	var streamErr error
	err := Scan(r, func(ev Event) bool {
		if ev.Name != "" && ev.Name != "message" {
			return true
		}
		f, done, err := ParseFrame(ev.Data)
		if err != nil {
			streamErr = err
			return false
		}
		if done {
			return false
		}
		if f.Error != "" {
			streamErr = fmt.Errorf("%w: %s", ErrStream, f.Error)
			return false
		}
		if f.Text == "" {
			return true
		}
		closed := sw.Send(schema.AssistantMessage(f.Text, nil), nil)
		return !closed
	})
	if streamErr == nil {
		streamErr = err
	}
	if streamErr != nil {
		sw.Send(nil, streamErr)
	}
}
