package limiter

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// MethodLimiter limits by route path. A rule keyed "/api/note" covers "/api/note/transfer" too,
// the longest matching key wins.
// MethodLimiter 按路由路径限流, 取最长匹配的前缀
type MethodLimiter struct {
	*Limiter
}

func NewMethodLimiter() Face {
	return MethodLimiter{
		Limiter: &Limiter{limiterBuckets: make(map[string]*ratelimit.Bucket)},
	}
}

func (l MethodLimiter) Key(c *gin.Context) string {
	path := c.Request.URL.Path
	best := ""
	for key := range l.limiterBuckets {
		if (path == key || strings.HasPrefix(path, strings.TrimSuffix(key, "/")+"/")) && len(key) > len(best) {
			best = key
		}
	}
	if best == "" {
		return path
	}
	return best
}

func (l MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	bucket, ok := l.limiterBuckets[key]
	return bucket, ok
}

// AddBuckets 只应在启动时调用
func (l MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	for _, rule := range rules {
		if rule.Key == "" || rule.FillInterval <= 0 || rule.Capacity <= 0 {
			continue
		}
		quantum := rule.Quantum
		if quantum <= 0 {
			quantum = 1
		}
		if _, ok := l.limiterBuckets[rule.Key]; !ok {
			l.limiterBuckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, quantum)
		}
	}
	return l
}
