package logic

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// normalizePage 规范化分页参数，返回页码、每页数量和偏移量
func normalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}
