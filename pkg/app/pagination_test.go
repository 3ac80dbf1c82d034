package app

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newQueryContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestNewPager(t *testing.T) {
	p := NewPager(newQueryContext("page=3&pageSize=20"), 55)
	assert.Equal(t, &Pager{Page: 3, PageSize: 20, TotalRows: 55}, p)

	p = NewPager(newQueryContext("page=-1&pageSize=1000"), 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPaginationConfig.MaxPageSize, p.PageSize)

	p = NewPager(newQueryContext(""), 0)
	assert.Equal(t, DefaultPaginationConfig.DefaultPageSize, p.PageSize)
}

func TestGetPageOffset(t *testing.T) {
	assert.Equal(t, 0, GetPageOffset(1, 10))
	assert.Equal(t, 20, GetPageOffset(3, 10))
	assert.Equal(t, 0, GetPageOffset(0, 10))
}
