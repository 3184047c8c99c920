package queue

import (
	"encoding/json"
	"fmt"
	"strconv"

	"restaurant_order/internal/alert"
)

// decodeAlert 解析 Kafka / Stream 中的提醒消息体。
func decodeAlert(b []byte) (alert.OrderAlert, error) {
	var a alert.OrderAlert
	if err := json.Unmarshal(b, &a); err != nil {
		return alert.OrderAlert{}, fmt.Errorf("unmarshal alert: %w", err)
	}
	if err := a.Validate(); err != nil {
		return alert.OrderAlert{}, err
	}
	return a, nil
}

// parseStreamAlert 从 Stream 条目中取出提醒，字段见 alert.StreamSink。
func parseStreamAlert(values map[string]interface{}) (alert.OrderAlert, error) {
	orderNumber, err := getStreamString(values, alert.StreamFieldOrderNumber)
	if err != nil {
		return alert.OrderAlert{}, err
	}
	payload, err := getStreamString(values, alert.StreamFieldPayload)
	if err != nil {
		return alert.OrderAlert{}, err
	}
	a, err := decodeAlert([]byte(payload))
	if err != nil {
		return alert.OrderAlert{}, err
	}
	if a.OrderNumber != orderNumber {
		return alert.OrderAlert{}, fmt.Errorf("order_number mismatch: field %q, payload %q", orderNumber, a.OrderNumber)
	}
	return a, nil
}

func getStreamString(values map[string]interface{}, key string) (string, error) {
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing field %s", key)
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("unsupported field type %s: %T", key, v)
	}
}
