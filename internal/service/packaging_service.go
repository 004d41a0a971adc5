package service

import (
	"math"
	"strings"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PackagingService 包装层级换算与组合展开
type PackagingService struct {
	packagingRepo repository.PackagingRepository
	catalogRepo   repository.CatalogRepository
}

// NewPackagingService 创建包装服务
func NewPackagingService(packagingRepo repository.PackagingRepository, catalogRepo repository.CatalogRepository) *PackagingService {
	return &PackagingService{packagingRepo: packagingRepo, catalogRepo: catalogRepo}
}

// ComponentQty 组合展开后的成分数量
type ComponentQty struct {
	SKUID    uint  `json:"sku_id"`
	QtyUnits int64 `json:"qty_units"`
}

// ToBaseUnits 将包装层级数量换算为基础单位，四舍五入（远离零）
func (s *PackagingService) ToBaseUnits(tx *gorm.DB, skuID uint, level string, qtyInLevel decimal.Decimal) (int64, error) {
	if qtyInLevel.IsNegative() {
		return 0, ErrInvalidQuantity
	}
	ratio, err := s.unitsPerLevel(tx, skuID, level)
	if err != nil {
		return 0, err
	}
	return roundUnits(qtyInLevel.Mul(ratio))
}

// UnitsPerLevel 返回层级的换算比例，缺失或为空时为 1
func (s *PackagingService) UnitsPerLevel(tx *gorm.DB, skuID uint, level string) (decimal.Decimal, error) {
	return s.unitsPerLevel(tx, skuID, level)
}

func (s *PackagingService) unitsPerLevel(tx *gorm.DB, skuID uint, level string) (decimal.Decimal, error) {
	rows, err := s.packagingRepo.WithTx(tx).ListBySKUAndLevel(skuID, normalizeLevel(level))
	if err != nil {
		return decimal.Zero, storageError("list packaging", err)
	}
	picked := pickPackaging(rows)
	if picked == nil || !picked.UnitsPerParent.Valid {
		return decimal.NewFromInt(1), nil
	}
	return picked.UnitsPerParent.Decimal, nil
}

// ExpandComposition 展开组合包装，空结果表示该包装不是组合
func (s *PackagingService) ExpandComposition(tx *gorm.DB, parentPackagingID uint, qtyOfParent decimal.Decimal) ([]ComponentQty, error) {
	if qtyOfParent.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	rows, err := s.packagingRepo.WithTx(tx).ListCompositions(parentPackagingID)
	if err != nil {
		return nil, storageError("list compositions", err)
	}
	result := make([]ComponentQty, 0, len(rows))
	for _, row := range rows {
		units, err := roundUnits(qtyOfParent.Mul(row.QtyUnits))
		if err != nil {
			return nil, err
		}
		result = append(result, ComponentQty{
			SKUID:    row.ChildSKUID,
			QtyUnits: units,
		})
	}
	return result, nil
}

// GetPackaging 获取包装行
func (s *PackagingService) GetPackaging(tx *gorm.DB, packagingID uint) (*models.Packaging, error) {
	item, err := s.packagingRepo.WithTx(tx).GetByID(packagingID)
	if err != nil {
		return nil, storageError("get packaging", err)
	}
	if item == nil {
		return nil, ErrPackagingNotFound
	}
	return item, nil
}

// RegisterPackaging 按 (sku, level) 写入包装层级，同层级不会产生重复行
func (s *PackagingService) RegisterPackaging(tx *gorm.DB, item *models.Packaging) error {
	if item == nil || item.SKUID == 0 {
		return ErrSKUNotFound
	}
	if item.UnitsPerParent.Valid && !item.UnitsPerParent.Decimal.IsPositive() {
		return ErrInvalidQuantity
	}
	if item.MinSellMultiple < 0 {
		return ErrInvalidQuantity
	}
	item.Level = normalizeLevel(item.Level)
	if err := s.packagingRepo.WithTx(tx).Upsert(item); err != nil {
		return storageError("upsert packaging", err)
	}
	return nil
}

// AddComposition 为组合包装追加成分，成分 SKU 必须存在且数量为正
func (s *PackagingService) AddComposition(tx *gorm.DB, parentPackagingID uint, childSKUID uint, qtyUnits decimal.Decimal) (*models.PackagingComposition, error) {
	if !qtyUnits.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if childSKUID == 0 {
		return nil, ErrSKUNotFound
	}
	if _, err := s.GetPackaging(tx, parentPackagingID); err != nil {
		return nil, err
	}
	child, err := s.catalogRepo.WithTx(tx).GetSKU(childSKUID)
	if err != nil {
		return nil, storageError("get sku", err)
	}
	if child == nil {
		return nil, ErrSKUNotFound
	}
	item := &models.PackagingComposition{
		ParentPackagingID: parentPackagingID,
		ChildSKUID:        childSKUID,
		QtyUnits:          qtyUnits,
	}
	if err := s.packagingRepo.WithTx(tx).CreateComposition(item); err != nil {
		return nil, storageError("create composition", err)
	}
	return item, nil
}

// ValidatePackagingRules 定义了 PACK/CASE 的 SKU 必须同时存在可售 UNIT，纯捆绑 SKU 除外
func (s *PackagingService) ValidatePackagingRules(tx *gorm.DB, skuID uint) error {
	rows, err := s.packagingRepo.WithTx(tx).ListBySKU(skuID)
	if err != nil {
		return storageError("list packaging", err)
	}
	levels := make(map[string]struct{}, len(rows))
	hasSellableUnit := false
	for _, row := range rows {
		level := normalizeLevel(row.Level)
		levels[level] = struct{}{}
		if level == constants.PackagingLevelUnit && row.IsSellable {
			hasSellableUnit = true
		}
	}
	_, hasPack := levels[constants.PackagingLevelPack]
	_, hasCase := levels[constants.PackagingLevelCase]
	if !hasPack && !hasCase {
		return nil
	}
	if hasSellableUnit || isBundleOnly(levels, hasSellableUnit) {
		return nil
	}
	return ErrMissingUnitPackaging
}

// isBundleOnly 层级仅为 {BUNDLE}，或 {BUNDLE, UNIT} 且 UNIT 不可售
func isBundleOnly(levels map[string]struct{}, hasSellableUnit bool) bool {
	if _, ok := levels[constants.PackagingLevelBundle]; !ok {
		return false
	}
	for level := range levels {
		switch level {
		case constants.PackagingLevelBundle:
		case constants.PackagingLevelUnit:
			if hasSellableUnit {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// pickPackaging 同层级多行时依次优先：比例非空、比例最大、ID 最大
func pickPackaging(rows []models.Packaging) *models.Packaging {
	var picked *models.Packaging
	for i := range rows {
		row := &rows[i]
		if picked == nil || packagingPreferred(row, picked) {
			picked = row
		}
	}
	return picked
}

func packagingPreferred(candidate, current *models.Packaging) bool {
	if candidate.UnitsPerParent.Valid != current.UnitsPerParent.Valid {
		return candidate.UnitsPerParent.Valid
	}
	if candidate.UnitsPerParent.Valid {
		if cmp := candidate.UnitsPerParent.Decimal.Cmp(current.UnitsPerParent.Decimal); cmp != 0 {
			return cmp > 0
		}
	}
	return candidate.ID > current.ID
}

func normalizeLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "" {
		return constants.PackagingLevelUnit
	}
	return level
}

var (
	maxUnits = decimal.NewFromInt(math.MaxInt64)
	minUnits = decimal.NewFromInt(math.MinInt64)
)

// roundUnits 四舍五入到整数基础单位（远离零），超出 int64 范围视为非法数量
func roundUnits(value decimal.Decimal) (int64, error) {
	rounded := value.Round(0)
	if rounded.GreaterThan(maxUnits) || rounded.LessThan(minUnits) {
		return 0, ErrInvalidQuantity
	}
	return rounded.IntPart(), nil
}

// addUnits 累加非负基础单位数量，溢出时返回 ErrInvalidQuantity
func addUnits(total, units int64) (int64, error) {
	if units < 0 || total > math.MaxInt64-units {
		return 0, ErrInvalidQuantity
	}
	return total + units, nil
}
