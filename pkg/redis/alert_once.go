package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaMarkOnce 通过 SETNX 保证同一个键只被标记一次，并设置过期时间。
const luaMarkOnce = `
local key = KEYS[1]
local ttlSec = tonumber(ARGV[1])

if redis.call('SETNX', key, '1') == 1 then
  redis.call('EXPIRE', key, ttlSec)
  return 1
end
return 0
`

// AlertTTL 去重标记的保留时间，超过这个时间的重复消息不再拦截。
const AlertTTL = 7 * 24 * time.Hour

// MarkAlertOnce 幂等标记订单提醒：
// - 首次标记返回 true，调用方应发送提醒
// - 重复标记返回 false（Kafka 重投的消息）
func MarkAlertOnce(ctx context.Context, rdb *rd.Client, orderNumber string) (bool, error) {
	ttlSeconds := int64(AlertTTL / time.Second)
	n, err := rdb.Eval(ctx, luaMarkOnce, []string{AlertSentKey(orderNumber)}, ttlSeconds).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UnmarkAlert 发送失败时撤销标记，让重投的消息可以再试一次。
func UnmarkAlert(ctx context.Context, rdb *rd.Client, orderNumber string) error {
	return rdb.Del(ctx, AlertSentKey(orderNumber)).Err()
}
