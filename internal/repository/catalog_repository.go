package repository

import (

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository 商品目录只读访问与库存扣减
type CatalogRepository interface {
	GetActiveProduct(id uint) (*models.Product, error)
	GetActiveVariant(id, productID uint) (*models.ProductVariant, error)
	DecrementStock(variantID uint, quantity int) (bool, error)
	IncrementStock(variantID uint, quantity int) error
	WithTx(tx *gorm.DB) *GormCatalogRepository
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建目录仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogRepository) WithTx(tx *gorm.DB) *GormCatalogRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogRepository{db: tx}
}

// GetActiveProduct 获取上架商品
func (r *GormCatalogRepository) GetActiveProduct(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Product](r.db.Where("id = ? AND is_active = ?", id, true))
}

// GetActiveVariant 获取属于指定商品的启用规格
func (r *GormCatalogRepository) GetActiveVariant(id, productID uint) (*models.ProductVariant, error) {
	if id == 0 || productID == 0 {
		return nil, nil
	}
	return firstOrNil[models.ProductVariant](r.db.Where("id = ? AND product_id = ? AND is_active = ?", id, productID, true))
}

// DecrementStock 条件扣减库存，库存不足时返回 false
func (r *GormCatalogRepository) DecrementStock(variantID uint, quantity int) (bool, error) {
	if quantity <= 0 {
		return true, nil
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementStock 归还库存
func (r *GormCatalogRepository) IncrementStock(variantID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
