package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/services"
)

// pageParams reads page and page_size. Missing values are passed as zero and
// defaulted by the service.
func pageParams(c *gin.Context) (int, int, error) {
	page, err := intQuery(c, "page")
	if err != nil {
		return 0, 0, err
	}
	size, err := intQuery(c, "page_size")
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// timeQuery parses an RFC 3339 timestamp or a bare date.
func timeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &services.ValidationError{Field: name, Message: "must be an RFC 3339 timestamp or YYYY-MM-DD"}
}

// pageResponse is the envelope for paged lists.
func pageResponse(items interface{}, total int64, page, pageSize int) gin.H {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = services.DefaultPageSize
	}
	return gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
