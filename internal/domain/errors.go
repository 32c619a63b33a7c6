package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound 提案或章节不存在
var ErrNotFound = errors.New("record not found")

// ErrParse 模型输出中没有可解析的 JSON，调用方应走启发式兜底
var ErrParse = errors.New("no json payload found")

// ValidationError 请求参数不合法
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// NewValidationError 创建参数校验错误
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AICollaboratorError AI 服务调用失败（网络、超时、流内错误、非 2xx）
type AICollaboratorError struct {
	Op  string
	Err error
}

func (e *AICollaboratorError) Error() string {
	return fmt.Sprintf("ai collaborator %s failed: %v", e.Op, e.Err)
}

func (e *AICollaboratorError) Unwrap() error {
	return e.Err
}

// PersistenceError 存储读写失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation 判断是否为参数校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAICollaborator 判断是否为 AI 调用错误
func IsAICollaborator(err error) bool {
	var ae *AICollaboratorError
	return errors.As(err, &ae)
}
