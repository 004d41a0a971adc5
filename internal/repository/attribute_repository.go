package repository

import (
	"errors"
	"strings"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributeRepository 动态属性数据访问接口
type AttributeRepository interface {
	GetDefinitionByCode(code string) (*models.AttributeDefinition, error)
	CreateDefinitionIfAbsent(item *models.AttributeDefinition) (*models.AttributeDefinition, error)
	UpsertValue(item *models.SKUAttributeValue) error
	ListValuesBySKU(skuID uint) ([]models.SKUAttributeValue, error)
	ListRulesForScope(categoryID *uint, tagIDs []uint) ([]models.AttributeRule, error)
	CreateRule(item *models.AttributeRule) error
	WithTx(tx *gorm.DB) AttributeRepository
}

// GormAttributeRepository GORM 实现
type GormAttributeRepository struct {
	db *gorm.DB
}

// NewAttributeRepository 创建属性仓库
func NewAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAttributeRepository) WithTx(tx *gorm.DB) AttributeRepository {
	if tx == nil {
		return r
	}
	return &GormAttributeRepository{db: tx}
}

// GetDefinitionByCode 根据编码获取属性定义
func (r *GormAttributeRepository) GetDefinitionByCode(code string) (*models.AttributeDefinition, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var item models.AttributeDefinition
	if err := r.db.Where("code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateDefinitionIfAbsent 编码不存在时插入，冲突时保留已有定义并返回
func (r *GormAttributeRepository) CreateDefinitionIfAbsent(item *models.AttributeDefinition) (*models.AttributeDefinition, error) {
	if item == nil {
		return nil, errors.New("attribute definition is nil")
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(item).Error; err != nil {
		return nil, err
	}
	return r.GetDefinitionByCode(item.Code)
}

// UpsertValue 按 (sku_id, attr_id) 写入属性值
func (r *GormAttributeRepository) UpsertValue(item *models.SKUAttributeValue) error {
	if item == nil {
		return errors.New("attribute value is nil")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku_id"}, {Name: "attr_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value_num", "unit_id", "value_text", "updated_at"}),
	}).Omit(clause.Associations).Create(item).Error
}

// ListValuesBySKU 获取 SKU 的全部属性值（预加载定义与单位）
func (r *GormAttributeRepository) ListValuesBySKU(skuID uint) ([]models.SKUAttributeValue, error) {
	if skuID == 0 {
		return []models.SKUAttributeValue{}, nil
	}
	var items []models.SKUAttributeValue
	if err := r.db.Preload("Attribute").
		Preload("Unit").
		Where("sku_id = ?", skuID).
		Order("attr_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListRulesForScope 获取作用于指定分类与标签集合的规则，按 ID 升序
func (r *GormAttributeRepository) ListRulesForScope(categoryID *uint, tagIDs []uint) ([]models.AttributeRule, error) {
	query := r.db.Preload("Attribute").Where("applies_to = ?", constants.AttributeRuleScopeAlways)
	if categoryID != nil && *categoryID != 0 {
		query = query.Or("applies_to = ? AND target_id = ?", constants.AttributeRuleScopeCategory, *categoryID)
	}
	if len(tagIDs) > 0 {
		query = query.Or("applies_to = ? AND target_id IN ?", constants.AttributeRuleScopeTag, tagIDs)
	}
	var items []models.AttributeRule
	if err := query.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateRule 创建属性规则
func (r *GormAttributeRepository) CreateRule(item *models.AttributeRule) error {
	if item == nil {
		return errors.New("attribute rule is nil")
	}
	return r.db.Omit(clause.Associations).Create(item).Error
}
