package model

import "strings"

// OrderStatus 订单状态。正常流转：
// pending → confirmed → preparing → ready → completed，cancelled 只能从 pending 进入。
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses 按流程顺序排列，展示与排序都依赖这个顺序。
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

// ActiveStatuses 仍在后厨流程中的状态。
var ActiveStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusReady}

func (s OrderStatus) Valid() bool {
	return s.Position() >= 0
}

// Position 返回在流程中的位置，未知状态返回 -1。
func (s OrderStatus) Position() int {
	for i, v := range AllStatuses {
		if v == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s OrderStatus) Active() bool {
	for _, v := range ActiveStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// StatusList 用于错误提示，例如 "pending, confirmed, ..."。
func StatusList() string {
	parts := make([]string, len(AllStatuses))
	for i, s := range AllStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
