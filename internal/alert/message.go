// Package alert 把新订单通知给店员。通知只是提醒，失败不影响订单本身。
package alert

import (
	"fmt"
	"strings"
	"time"

	"restaurant_order/internal/model"

	"github.com/shopspring/decimal"
)

// OrderAlert 新订单提醒，写入 Redis Stream / Kafka 时的消息体。
type OrderAlert struct {
	OrderID       uint            `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	TableNumber   string          `json:"table_number,omitempty"` // 空表示外带
	Notes         string          `json:"notes,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Items         []AlertItem     `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

type AlertItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Notes    string          `json:"notes,omitempty"`
}

// FromOrder 从已提交的订单生成提醒。
func FromOrder(o model.Order) OrderAlert {
	a := OrderAlert{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Notes:         o.Notes,
		TotalAmount:   o.TotalAmount,
		Items:         make([]AlertItem, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
	}
	if o.TableNumber != nil {
		a.TableNumber = *o.TableNumber
	}
	for _, it := range o.Items {
		a.Items = append(a.Items, AlertItem{
			Name:     it.MenuItemName,
			Quantity: it.Quantity,
			Price:    it.Price,
			Notes:    it.Notes,
		})
	}
	return a
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (a OrderAlert) Validate() error {
	if a.OrderNumber == "" {
		return fmt.Errorf("order_number is required")
	}
	if a.CustomerName == "" {
		return fmt.Errorf("customer_name is required")
	}
	if len(a.Items) == 0 {
		return fmt.Errorf("items must not be empty")
	}
	if a.TotalAmount.IsNegative() {
		return fmt.Errorf("total_amount must be >= 0")
	}
	return nil
}

// FormatMessage 渲染成聊天软件里发给店员的文本。
func FormatMessage(a OrderAlert) string {
	var b strings.Builder
	b.WriteString("*NEW ORDER RECEIVED*\n")
	fmt.Fprintf(&b, "Order #: %s\n", a.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s\n", a.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", orDefault(a.CustomerPhone, "N/A"))
	fmt.Fprintf(&b, "Table: %s\n", orDefault(a.TableNumber, "Takeaway"))
	fmt.Fprintf(&b, "Total: Rp %s\n", Rupiah(a.TotalAmount))
	fmt.Fprintf(&b, "Notes: %s\n\n", orDefault(a.Notes, "No notes"))
	b.WriteString("Order Items:\n")
	for i, it := range a.Items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(&b, "%d. %s x%d - Rp %s\n", i+1, it.Name, it.Quantity, Rupiah(line))
		if it.Notes != "" {
			fmt.Fprintf(&b, "   (%s)\n", it.Notes)
		}
	}
	return b.String()
}

// Rupiah 千分位格式，例如 65000 → "65,000"，12345.5 → "12,345.50"。
func Rupiah(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
