package handler

import (
	"github.com/dixitakash2514/argos-mob-proposal/internal/pkg/sse"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// turnStream 第一段文本到达时才切换到 SSE
// 在此之前出错（参数错误、并发冲突）仍按普通 JSON 返回
type turnStream struct {
	c *gin.Context
	w *sse.Writer
}

func newTurnStream(c *gin.Context) *turnStream {
	return &turnStream{c: c}
}

func (t *turnStream) writer() *sse.Writer {
	if t.w == nil {
		t.w = sse.NewWriter(t.c.Writer)
	}
	return t.w
}

func (t *turnStream) started() bool {
	return t.w != nil
}

// sink 把增量文本写成 data 帧；客户端断开后写失败只记录日志，取消由请求 context 负责
func (t *turnStream) sink() chat.Sink {
	return func(ch chat.Chunk) {
		if err := t.writer().Text(ch.Text); err != nil {
			klog.V(6).Infof("SSE 写入失败: %v", err)
		}
	}
}

// event 写出具名事件
func (t *turnStream) event(name string, v any) {
	if err := t.writer().Event(name, v); err != nil {
		klog.V(6).Infof("SSE 写入失败: event=%s, error=%v", name, err)
	}
}

// finish 写出失败帧（如有）和结束标记
func (t *turnStream) finish(errMsg string) {
	w := t.writer()
	if errMsg != "" {
		_ = w.Error(errMsg)
	}
	_ = w.Done()
}
