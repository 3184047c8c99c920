package order

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CreateRequest 顾客提交的购物车。
type CreateRequest struct {
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	TableNumber   TableNumber `json:"table_number"`
	Notes         string      `json:"notes"`
	Items         []CartLine  `json:"items"`
}

// CartLine 购物车中的一行。
type CartLine struct {
	MenuItemID uint   `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

// TableNumber 桌号，前端可能传字符串也可能传数字；空值表示外带。
type TableNumber string

func (t *TableNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TableNumber(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = TableNumber(n.String())
	return nil
}

// ptr 外带返回 nil。
func (t TableNumber) ptr() *string {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return nil
	}
	return &s
}

// Validate 只做与数据库无关的校验。
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return validationf("customer_name is required")
	}
	if strings.TrimSpace(r.CustomerPhone) == "" {
		return validationf("customer_phone is required")
	}
	if len(r.Items) == 0 {
		return validationf("Order must contain at least one item")
	}
	for i, it := range r.Items {
		if it.MenuItemID == 0 {
			return validationf("item %d: menu_item_id is required", i+1)
		}
		if it.Quantity <= 0 {
			return validationf("item %d: quantity must be a positive integer", i+1)
		}
	}
	return nil
}
