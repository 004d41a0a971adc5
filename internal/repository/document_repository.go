package repository

import (
	"errors"

	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
)

// DocumentRepository 采购/销售单据数据访问接口（仅追加）
type DocumentRepository interface {
	CreatePurchase(item *models.Purchase) error
	CreatePurchaseLine(item *models.PurchaseLine) error
	GetPurchaseByID(id uint) (*models.Purchase, error)
	CreateSale(item *models.Sale) error
	CreateSaleLine(item *models.SaleLine) error
	GetSaleByID(id uint) (*models.Sale, error)
	WithTx(tx *gorm.DB) DocumentRepository
}

// GormDocumentRepository GORM 实现
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建单据仓库
func NewDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDocumentRepository) WithTx(tx *gorm.DB) DocumentRepository {
	if tx == nil {
		return r
	}
	return &GormDocumentRepository{db: tx}
}

// CreatePurchase 创建采购单头
func (r *GormDocumentRepository) CreatePurchase(item *models.Purchase) error {
	if item == nil {
		return errors.New("purchase is nil")
	}
	return r.db.Omit("Lines").Create(item).Error
}

// CreatePurchaseLine 创建采购明细
func (r *GormDocumentRepository) CreatePurchaseLine(item *models.PurchaseLine) error {
	if item == nil {
		return errors.New("purchase line is nil")
	}
	return r.db.Create(item).Error
}

// GetPurchaseByID 获取采购单及明细
func (r *GormDocumentRepository) GetPurchaseByID(id uint) (*models.Purchase, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.Purchase
	if err := r.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateSale 创建销售单头
func (r *GormDocumentRepository) CreateSale(item *models.Sale) error {
	if item == nil {
		return errors.New("sale is nil")
	}
	return r.db.Omit("Lines").Create(item).Error
}

// CreateSaleLine 创建销售明细
func (r *GormDocumentRepository) CreateSaleLine(item *models.SaleLine) error {
	if item == nil {
		return errors.New("sale line is nil")
	}
	return r.db.Create(item).Error
}

// GetSaleByID 获取销售单及明细
func (r *GormDocumentRepository) GetSaleByID(id uint) (*models.Sale, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.Sale
	if err := r.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}
