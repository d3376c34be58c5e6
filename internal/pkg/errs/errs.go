// Package errs 定义业务错误分类，调用方据此渲染响应而无需了解内部实现。
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindPermission
	KindConflict
	KindGeneration
	KindQuotaExceeded
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindValidation:    "validation",
	KindNotFound:      "not_found",
	KindPermission:    "permission",
	KindConflict:      "conflict",
	KindGeneration:    "generation",
	KindQuotaExceeded: "quota_exceeded",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error 带分类的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建分类错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 以分类错误包装底层错误
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error    { return New(KindValidation, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Permission(message string) *Error    { return New(KindPermission, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func QuotaExceeded(message string) *Error { return New(KindQuotaExceeded, message) }

func Generation(message string, err error) *Error {
	return Wrap(KindGeneration, message, err)
}

// KindOf 返回错误链上第一个分类错误的类别
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is 判断错误链中是否存在指定类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf 返回可展示给用户的消息，非分类错误返回空串
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
