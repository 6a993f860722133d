package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

// retryAfter 计算超限后的等待秒数，TTL 异常时按整窗口等待
func (r RateLimitRule) retryAfter(ttl int64) int {
	if ttl < 1 {
		return r.WindowSeconds
	}
	return int(ttl)
}

// 首次计数时设置窗口过期时间，返回 {当前计数, 剩余秒数}
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

// allow 对 key 计数一次，超限时返回需等待的秒数
func (r RateLimitRule) allow(ctx context.Context, client *redis.Client, key string) (bool, int, error) {
	values, err := rateLimitScript.Run(ctx, client, []string{r.key(key)}, r.WindowSeconds).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 || values[0] <= int64(r.MaxRequests) {
		return true, 0, nil
	}
	return false, r.retryAfter(values[1]), nil
}

// RateLimitMiddleware Redis 频率限制中间件，未配置 Redis 或规则时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}
		key := strings.TrimSpace(keyFunc(c))
		if key == "" {
			key = c.ClientIP()
		}

		ok, wait, err := rule.allow(c.Request.Context(), client, key)
		if err != nil {
			logger.Warnw("rate_limit_script_failed", "key", rule.key(key), "error", err)
			response.Error(c, response.CodeInternal, "rate limit unavailable")
			c.Abort()
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(wait))
			response.Error(c, response.CodeTooManyRequests, "too many requests, retry in "+strconv.Itoa(wait)+" seconds")
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUser 已登录接口按用户限流，未取到用户时退回 IP
func KeyByUser(c *gin.Context) string {
	if value, ok := c.Get(shared.ContextKeyUserID); ok {
		if userID, ok := value.(uint); ok && userID > 0 {
			return "user:" + strconv.FormatUint(uint64(userID), 10)
		}
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 JSON 字段 + IP 作为限流 key，读取后恢复请求体
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(readJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := c.GetRawData()
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	var text string
	if json.Unmarshal(payload[field], &text) != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
