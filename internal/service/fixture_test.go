package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixtureNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	db         *gorm.DB
	catalog    *repository.GormCatalogRepository
	packaging  *PackagingService
	attributes *AttributeService
	costing    *CostingService
	movements  *MovementService
	lowStock   *LowStockService
	reports    *ReportService
	inventory  *InventoryService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	clock := FixedClock{At: fixtureNow}
	catalogRepo := repository.NewCatalogRepository(db)
	packagingRepo := repository.NewPackagingRepository(db)
	attributeRepo := repository.NewAttributeRepository(db)
	costRepo := repository.NewCostRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	packagingSvc := NewPackagingService(packagingRepo, catalogRepo)
	attributeSvc := NewAttributeService(attributeRepo, catalogRepo)
	costingSvc := NewCostingService(costRepo, movementRepo, clock)
	movementSvc := NewMovementService(catalogRepo, movementRepo, documentRepo, packagingSvc, costingSvc, clock)
	lowStockSvc := NewLowStockService(catalogRepo, costRepo, costingSvc, 10)
	reportSvc := NewReportService(reportRepo, 10, 0, clock)

	return &ledgerFixture{
		db:         db,
		catalog:    catalogRepo,
		packaging:  packagingSvc,
		attributes: attributeSvc,
		costing:    costingSvc,
		movements:  movementSvc,
		lowStock:   lowStockSvc,
		reports:    reportSvc,
		inventory: NewInventoryService(InventoryServiceOptions{
			DB:                  db,
			CatalogRepo:         catalogRepo,
			DocumentRepo:        documentRepo,
			PackagingService:    packagingSvc,
			AttributeService:    attributeSvc,
			CostingService:      costingSvc,
			MovementService:     movementSvc,
			LowStockService:     lowStockSvc,
			LowStockCheckOnSale: true,
		}),
	}
}

func (f *ledgerFixture) createCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	item := &models.Category{Name: name}
	if err := f.catalog.CreateCategory(item); err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return item
}

func (f *ledgerFixture) createSKU(t *testing.T, code string, categoryID *uint) *models.SKU {
	t.Helper()
	product := &models.Product{Name: "product " + code, CategoryID: categoryID}
	if err := f.catalog.CreateProduct(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	sku := &models.SKU{ProductID: product.ID, Code: code, IsActive: true}
	if err := f.catalog.CreateSKU(sku); err != nil {
		t.Fatalf("create sku failed: %v", err)
	}
	return sku
}

func (f *ledgerFixture) createUOM(t *testing.T, code string) *models.UnitOfMeasure {
	t.Helper()
	item := &models.UnitOfMeasure{Code: code, Label: code}
	if err := f.catalog.CreateUOM(item); err != nil {
		t.Fatalf("create uom failed: %v", err)
	}
	return item
}

func (f *ledgerFixture) addPackaging(t *testing.T, skuID uint, level string, ratio string, sellable bool) *models.Packaging {
	t.Helper()
	item := &models.Packaging{SKUID: skuID, Level: level, IsSellable: sellable, IsPurchasable: true}
	if ratio != "" {
		item.UnitsPerParent = decimal.NewNullDecimal(decimal.RequireFromString(ratio))
	}
	if err := f.packaging.RegisterPackaging(f.db, item); err != nil {
		t.Fatalf("register packaging failed: %v", err)
	}
	return item
}

func (f *ledgerFixture) buyUnits(t *testing.T, skuID uint, units int64, unitCost string) *models.Purchase {
	t.Helper()
	var purchase *models.Purchase
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = f.movements.RecordPurchase(tx, PurchaseInput{
			Supplier: "acme",
			Lines: []PurchaseLineInput{{
				SKUID:    skuID,
				Qty:      decimal.NewFromInt(units),
				UnitCost: decimal.RequireFromString(unitCost),
			}},
		})
		return err
	})
	if err != nil {
		t.Fatalf("record purchase failed: %v", err)
	}
	return purchase
}

func (f *ledgerFixture) onHand(t *testing.T, skuID uint) int64 {
	t.Helper()
	qty, err := f.costing.OnHand(f.db, skuID)
	if err != nil {
		t.Fatalf("on hand failed: %v", err)
	}
	return qty
}

func (f *ledgerFixture) avgCost(t *testing.T, skuID uint) decimal.Decimal {
	t.Helper()
	avg, err := f.costing.AverageCost(f.db, skuID)
	if err != nil {
		t.Fatalf("average cost failed: %v", err)
	}
	return avg
}

func (f *ledgerFixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var total int64
	if err := f.db.Model(model).Count(&total).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return total
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
