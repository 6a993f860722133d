package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CreatorEarningsTTL 创作者收益汇总缓存时长
const CreatorEarningsTTL = 2 * time.Minute

// CreatorEarningsKey 创作者收益汇总缓存 key 的基础部分
func CreatorEarningsKey(creatorID uint) string {
	return fmt.Sprintf("earnings:creator:%d", creatorID)
}

// CreatorEarningsGenerationKey 创作者收益缓存代数计数器 key
func CreatorEarningsGenerationKey(creatorID uint) string {
	return CreatorEarningsKey(creatorID) + ":gen"
}

func creatorEarningsVersionKey(creatorID uint, generation int64) string {
	return fmt.Sprintf("%s:v%d", CreatorEarningsKey(creatorID), generation)
}

// CreatorEarningsVersionedKey 读取当前代数并返回带版本的缓存 key。
// 调用方须在查询数据库之前取得 key：查询期间发生的失效会推进代数，
// 旧快照只会写入已废弃的版本，不会被后续读取命中。
func CreatorEarningsVersionedKey(ctx context.Context, creatorID uint) (string, error) {
	if !Enabled() {
		return creatorEarningsVersionKey(creatorID, 0), nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	generation, err := redisClient.Get(ctx, buildKey(CreatorEarningsGenerationKey(creatorID))).Int64()
	if err == redis.Nil {
		return creatorEarningsVersionKey(creatorID, 0), nil
	}
	if err != nil {
		return "", err
	}
	return creatorEarningsVersionKey(creatorID, generation), nil
}

// InvalidateCreatorEarnings 成交、冲正、提现状态变化后推进收益缓存代数
func InvalidateCreatorEarnings(ctx context.Context, creatorID uint) error {
	if creatorID == 0 || !Enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return redisClient.Incr(ctx, buildKey(CreatorEarningsGenerationKey(creatorID))).Err()
}
