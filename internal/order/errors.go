package order

import (
	"errors"
	"fmt"
)

// 错误分类，调用方用 errors.Is 判断。
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrStore       = errors.New("store error")

	// ErrInvalidTransition 属于 ErrValidation。
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)
)

// Error 带可读信息的分类错误。Error() 只返回 Msg，便于直接回给前端。
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool { return errors.Is(e.Kind, target) }

func (e *Error) Unwrap() error { return e.Err }

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func unavailablef(format string, args ...any) error {
	return &Error{Kind: ErrUnavailable, Msg: fmt.Sprintf(format, args...)}
}

// storeErr 包装数据库层错误；已经分类过的错误原样返回。
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: ErrStore, Msg: fmt.Sprintf("%s: %v", op, err), Err: err}
}
