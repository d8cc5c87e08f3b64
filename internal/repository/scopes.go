package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPageSize = 100

// paginate 分页 scope；pageSize<=0 时不分页，超过上限时截断
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		if page < 1 {
			page = 1
		}
		return db.Limit(pageSize).Offset((page - 1) * pageSize)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsText 模糊匹配任一列；postgres 使用 ILIKE，关键字中的通配符按字面匹配
func containsText(keyword string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" || len(columns) == 0 {
			return db
		}
		op := "LIKE"
		if db.Dialector != nil && strings.HasPrefix(db.Dialector.Name(), "postgres") {
			op = "ILIKE"
		}
		pattern := "%" + likeEscaper.Replace(keyword) + "%"

		conds := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))
		for _, col := range columns {
			conds = append(conds, col+" "+op+` ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}

// firstOrNil 查询单条记录，不存在时返回 nil, nil
func firstOrNil[T any](query *gorm.DB, conds ...any) (*T, error) {
	var row T
	err := query.First(&row, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// listPage 先统计总数再按页取数
func listPage[T any](query *gorm.DB, page, pageSize int, order string) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]T, 0)
	if total == 0 {
		return rows, 0, nil
	}
	if err := query.Scopes(paginate(page, pageSize)).Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// forUpdate 行锁，sqlite 下被忽略
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
