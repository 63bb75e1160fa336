package round

import (
	"errors"
	"fmt"
)

// ErrRoundNotFound 表示指定ID的回合不存在
var ErrRoundNotFound = errors.New("回合不存在")

// ErrResultNotFound 表示回合尚未产生结算结果
var ErrResultNotFound = errors.New("回合还没有结算结果")

// ValidationError 表示输入校验失败。
// 校验在任何状态变更之前完成，失败的调用不留下任何痕迹。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StateError 表示回合当前阶段不允许这次调用。
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func stateErrorf(format string, args ...interface{}) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}
