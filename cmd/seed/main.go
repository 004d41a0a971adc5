package main

import (
	"context"
	"time"

	"github.com/stockledger/internal/config"
	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/provider"
	"github.com/stockledger/internal/service"

	"github.com/shopspring/decimal"
)

// seedSKU 演示 SKU
type seedSKU struct {
	Code     string
	Variant  string
	Vintage  string
	CaseSize int64
	Tags     []string
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 种子数据只走同步路径，不投递队列任务
	container := provider.NewContainerWithDB(cfg, models.DB, nil)
	ctx := context.Background()
	inv := container.InventoryService

	// 计量单位
	for _, uom := range []models.UnitOfMeasure{
		{Code: "un", Label: "unidad"},
		{Code: "ml", Label: "mililitro"},
	} {
		existing, err := container.CatalogRepo.GetUOMByCode(uom.Code)
		if err != nil {
			stdLog.Fatalf("Failed to load uom %s: %v", uom.Code, err)
		}
		if existing != nil {
			continue
		}
		item := uom
		if err := container.CatalogRepo.CreateUOM(&item); err != nil {
			stdLog.Fatalf("Failed to create uom %s: %v", uom.Code, err)
		}
	}

	// 属性与规则
	for _, spec := range []service.AttributeSpec{
		{Code: "volume", Label: "Volume", Type: constants.AttributeTypeNumber, UnitConstraint: "ml", IsIndexed: true},
		{Code: "vintage", Label: "Vintage", Type: constants.AttributeTypeNumber},
		{Code: "color", Label: "Color", Type: constants.AttributeTypeEnum, EnumOptions: []string{"red", "white", "rose"}, IsIndexed: true},
	} {
		if _, err := inv.EnsureAttribute(ctx, spec); err != nil {
			stdLog.Fatalf("Failed to ensure attribute %s: %v", spec.Code, err)
		}
	}

	existing, err := container.CatalogRepo.GetSKUByCode("MALBEC-750")
	if err != nil {
		stdLog.Fatalf("Failed to check seed state: %v", err)
	}
	if existing != nil {
		stdLog.Printf("Seed data already present, skipped")
		return
	}

	wineTag, err := container.CatalogRepo.EnsureTag("wine")
	if err != nil {
		stdLog.Fatalf("Failed to ensure tag: %v", err)
	}
	minVintage := decimal.NewFromInt(1900)
	if _, err := inv.AddAttributeRule(ctx, service.AttributeRuleSpec{
		AttrCode:  "vintage",
		AppliesTo: constants.AttributeRuleScopeTag,
		TargetID:  &wineTag.ID,
		Required:  true,
		MinNum:    &minVintage,
	}); err != nil {
		stdLog.Fatalf("Failed to create vintage rule: %v", err)
	}

	product := &models.Product{Name: "Bodega Demo"}
	if err := container.CatalogRepo.CreateProduct(product); err != nil {
		stdLog.Fatalf("Failed to create product: %v", err)
	}

	skus := []seedSKU{
		{Code: "MALBEC-750", Variant: "Malbec 750ml", Vintage: "2021", CaseSize: 6, Tags: []string{"wine", "red"}},
		{Code: "TORRONTES-750", Variant: "Torrontes 750ml", Vintage: "2023", CaseSize: 12, Tags: []string{"wine", "white"}},
	}
	skuIDs := map[string]uint{}
	for _, item := range skus {
		sku := &models.SKU{ProductID: product.ID, Code: item.Code, Variant: item.Variant, IsActive: true}
		if err := container.CatalogRepo.CreateSKU(sku); err != nil {
			stdLog.Fatalf("Failed to create sku %s: %v", item.Code, err)
		}
		skuIDs[item.Code] = sku.ID
		mustSeed(stdLog.Fatalf, item.Code, inv.SetSKUTags(ctx, sku.ID, item.Tags))
		mustSeed(stdLog.Fatalf, item.Code, inv.SetAttributeValue(ctx, sku.ID, "volume", "750", "ml"))
		mustSeed(stdLog.Fatalf, item.Code, inv.SetAttributeValue(ctx, sku.ID, "vintage", item.Vintage, ""))
		mustSeed(stdLog.Fatalf, item.Code, inv.RegisterPackaging(ctx, &models.Packaging{
			SKUID: sku.ID, Level: constants.PackagingLevelUnit, Label: "Botella", IsSellable: true, IsPurchasable: true, MinSellMultiple: 1,
		}))
		mustSeed(stdLog.Fatalf, item.Code, inv.RegisterPackaging(ctx, &models.Packaging{
			SKUID: sku.ID, Level: constants.PackagingLevelCase, Label: "Caja", UnitsPerParent: decimal.NewNullDecimal(decimal.NewFromInt(item.CaseSize)),
			IsSellable: true, IsPurchasable: true, MinSellMultiple: 1,
		}))
		mustSeed(stdLog.Fatalf, item.Code, inv.ValidateSKU(ctx, sku.ID))
		stdLog.Printf("Created sku: %s", item.Code)
	}

	// 混装礼盒：1 支 Malbec + 1 支 Torrontes
	giftSKU := &models.SKU{ProductID: product.ID, Code: "GIFT-DUO", Variant: "Gift box duo", IsActive: true}
	if err := container.CatalogRepo.CreateSKU(giftSKU); err != nil {
		stdLog.Fatalf("Failed to create gift sku: %v", err)
	}
	gift := &models.Packaging{
		SKUID: giftSKU.ID, Level: constants.PackagingLevelBundle, Label: "Estuche x2", IsSellable: true, IsPurchasable: true,
		MinSellMultiple: 1, ExceptionType: "BUNDLE_ONLY",
	}
	mustSeed(stdLog.Fatalf, giftSKU.Code, inv.RegisterPackaging(ctx, gift))
	for _, code := range []string{"MALBEC-750", "TORRONTES-750"} {
		if _, err := inv.AddComposition(ctx, gift.ID, skuIDs[code], decimal.NewFromInt(1)); err != nil {
			stdLog.Fatalf("Failed to add composition %s: %v", code, err)
		}
	}
	mustSeed(stdLog.Fatalf, "MALBEC-750", inv.SetThreshold(ctx, skuIDs["MALBEC-750"], 12))

	day := time.Now().UTC().AddDate(0, 0, -7).Truncate(24 * time.Hour)
	if _, err := inv.RecordPurchase(ctx, service.PurchaseInput{
		Ts:       day,
		Supplier: "Distribuidora Andes",
		Lines: []service.PurchaseLineInput{
			{SKUID: skuIDs["MALBEC-750"], PackagingLevel: constants.PackagingLevelCase, Qty: decimal.NewFromInt(10), UnitCost: decimal.RequireFromString("4.20")},
			{SKUID: skuIDs["TORRONTES-750"], PackagingLevel: constants.PackagingLevelCase, Qty: decimal.NewFromInt(4), UnitCost: decimal.RequireFromString("3.10")},
		},
	}); err != nil {
		stdLog.Fatalf("Failed to record purchase: %v", err)
	}
	if _, err := inv.RecordMixedPurchase(ctx, service.MixedPurchaseInput{
		Ts:                day.AddDate(0, 0, 1),
		Supplier:          "Distribuidora Andes",
		ParentPackagingID: gift.ID,
		QtyPacks:          decimal.NewFromInt(6),
		UnitCost:          decimal.RequireFromString("4.80"),
	}); err != nil {
		stdLog.Fatalf("Failed to record mixed purchase: %v", err)
	}
	if _, err := inv.RecordSale(ctx, service.SaleInput{
		Ts:       day.AddDate(0, 0, 2),
		Customer: "Vinoteca Centro",
		Lines: []service.SaleLineInput{
			{SKUID: skuIDs["MALBEC-750"], PackagingLevel: constants.PackagingLevelUnit, Qty: decimal.NewFromInt(18), UnitPrice: decimal.RequireFromString("9.50")},
			{SKUID: skuIDs["TORRONTES-750"], PackagingLevel: constants.PackagingLevelCase, Qty: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("7.00")},
		},
	}); err != nil {
		stdLog.Fatalf("Failed to record sale: %v", err)
	}
	if _, err := inv.RecordBundleSale(ctx, service.BundleSaleInput{
		Ts:                day.AddDate(0, 0, 3),
		Customer:          "Regalos SRL",
		BundlePackagingID: gift.ID,
		QtyBundles:        decimal.NewFromInt(3),
		TotalPrice:        decimal.RequireFromString("54.00"),
	}); err != nil {
		stdLog.Fatalf("Failed to record bundle sale: %v", err)
	}

	alerts, err := inv.ScanLowStock(ctx)
	if err != nil {
		stdLog.Fatalf("Failed to scan low stock: %v", err)
	}
	stdLog.Printf("Seed completed, low stock alerts: %d", len(alerts))
}

func mustSeed(fatalf func(format string, v ...interface{}), code string, err error) {
	if err != nil {
		fatalf("Failed to seed %s: %v", code, err)
	}
}
