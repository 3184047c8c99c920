package order

import "restaurant_order/internal/model"

// TransitionPolicy 决定状态机是否校验流转方向。
type TransitionPolicy int

const (
	// PolicyPermissive 任意合法状态之间都可以互相设置（与现有前端行为一致）。
	PolicyPermissive TransitionPolicy = iota
	// PolicyStrict 只允许走到下一步，或从 pending 取消；终态不可再改。
	// 重复设置为当前状态总是允许。
	PolicyStrict
)

func (p TransitionPolicy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "permissive"
}

// Allows 判断 from → to 是否合法。调用前 to 已经过 Valid 校验。
func (p TransitionPolicy) Allows(from, to model.OrderStatus) bool {
	if p != PolicyStrict || from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	if to == model.StatusCancelled {
		return from == model.StatusPending
	}
	return to.Position() == from.Position()+1
}
