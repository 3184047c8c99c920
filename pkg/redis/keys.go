package redis

import "fmt"

// OrderRateLimitPhoneKey 按顾客手机号限流的键。
func OrderRateLimitPhoneKey(phone string) string {
	return fmt.Sprintf("restaurant:rate_limit:order:phone:%s", phone)
}

// OrderRateLimitIPKey 请求体里没有手机号时按 IP 限流。
func OrderRateLimitIPKey(ip string) string {
	return fmt.Sprintf("restaurant:rate_limit:order:ip:%s", ip)
}

// AlertSentKey 标记某个订单号的提醒是否已经发出。
func AlertSentKey(orderNumber string) string {
	return fmt.Sprintf("restaurant:alert:sent:%s", orderNumber)
}
