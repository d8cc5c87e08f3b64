package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（目录协作方维护，订单核心只读）
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                   // 主键
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`       // 唯一标识
	Name        string         `gorm:"type:varchar(255);not null" json:"name"` // 名称
	Description string         `gorm:"type:text" json:"description,omitempty"` // 描述
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`    // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`      // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ProductVariant 商品规格（价格+库存维度）
type ProductVariant struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                                                // 主键
	ProductID uint           `gorm:"not null;index;uniqueIndex:idx_product_variant_sku" json:"product_id"`                // 商品ID
	SKU       string         `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_product_variant_sku" json:"sku"` // SKU编码（同商品内唯一）
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`                                              // 规格名称
	Price     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`                                  // 规格价格
	Stock     int            `gorm:"not null;default:0" json:"stock"`                                                     // 库存
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`                                                 // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                                             // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                                                          // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                                                      // 软删除时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}
