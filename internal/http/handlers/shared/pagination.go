package shared

import (
	"strconv"

	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ParsePagination 读取 page 与 limit 查询参数，兼容 page_size，并归一化。
func ParsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limitRaw := c.Query("limit")
	if limitRaw == "" {
		limitRaw = c.Query("page_size")
	}
	limit, _ := strconv.Atoi(limitRaw)
	return service.NormalizePage(page, limit)
}
