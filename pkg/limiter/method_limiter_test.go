package limiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctxFor(path string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", path, nil)
	return c
}

func TestMethodLimiter_Key(t *testing.T) {
	l := NewMethodLimiter().AddBuckets(
		BucketRule{Key: "/api", FillInterval: time.Second, Capacity: 10},
		BucketRule{Key: "/api/note", FillInterval: time.Second, Capacity: 2},
	)

	assert.Equal(t, "/api/note", l.Key(ctxFor("/api/note/transfer")))
	assert.Equal(t, "/api/note", l.Key(ctxFor("/api/note")))
	assert.Equal(t, "/api", l.Key(ctxFor("/api/notes")))
	assert.Equal(t, "/metrics", l.Key(ctxFor("/metrics")))
}

func TestMethodLimiter_Bucket(t *testing.T) {
	l := NewMethodLimiter().AddBuckets(BucketRule{Key: "/api/note", FillInterval: time.Hour, Capacity: 2})

	bucket, ok := l.GetBucket("/api/note")
	require.True(t, ok)
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(0), bucket.TakeAvailable(1))

	_, ok = l.GetBucket("/nothing")
	assert.False(t, ok)
}
