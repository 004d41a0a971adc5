package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
)

func TestRecordSaleSnapshotsCOGS(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "COGS-1", nil)
	f.buyUnits(t, sku.ID, 100, "2")
	f.buyUnits(t, sku.ID, 50, "5")

	sale, err := f.movements.RecordSale(f.db, SaleInput{
		Customer: "walk-in",
		Lines:    []SaleLineInput{{SKUID: sku.ID, Qty: dec("120"), UnitPrice: dec("4.5")}},
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if len(sale.Lines) != 1 {
		t.Fatalf("expected one sale line, got %d", len(sale.Lines))
	}
	line := sale.Lines[0]
	if line.QtyUnits != 120 || !line.CogsUnit.Equal(dec("3")) {
		t.Fatalf("unexpected sale line: %+v", line)
	}
	if line.CogsTotal.String() != "360.00" {
		t.Fatalf("expected cogs 360.00, got %s", line.CogsTotal.String())
	}
	if sale.TotalAmount.String() != "540.00" {
		t.Fatalf("expected total 540.00, got %s", sale.TotalAmount.String())
	}
	if got := f.onHand(t, sku.ID); got != 30 {
		t.Fatalf("expected 30 on hand, got %d", got)
	}

	stored, err := f.inventory.GetSale(t.Context(), sale.ID)
	if err != nil {
		t.Fatalf("get sale failed: %v", err)
	}
	if len(stored.Lines) != 1 || stored.Lines[0].CogsTotal.String() != "360.00" {
		t.Fatalf("stored sale mismatch: %+v", stored.Lines)
	}
	var movement models.Movement
	if err := f.db.Preload("Lines").First(&movement, sale.MovementID).Error; err != nil {
		t.Fatalf("load movement failed: %v", err)
	}
	if movement.Type != constants.MovementTypeSale || len(movement.Lines) != 1 || movement.Lines[0].QtyUnits != -120 {
		t.Fatalf("unexpected sale movement: %+v", movement)
	}
	if !strings.HasPrefix(movement.Reference, constants.MovementReferenceApp+":") || !movement.Ts.Equal(fixtureNow) {
		t.Fatalf("unexpected movement header: %+v", movement)
	}
}

func TestRecordSaleIsAllOrNothing(t *testing.T) {
	f := newLedgerFixture(t)
	skuA := f.createSKU(t, "ATOM-A", nil)
	skuB := f.createSKU(t, "ATOM-B", nil)
	f.buyUnits(t, skuA.ID, 10, "1")
	movementsBefore := f.count(t, &models.Movement{})

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.movements.RecordSale(tx, SaleInput{Lines: []SaleLineInput{
			{SKUID: skuA.ID, Qty: dec("5"), UnitPrice: dec("2")},
			{SKUID: skuB.ID, Qty: dec("1000000"), UnitPrice: dec("2")},
		}})
		return err
	})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if insufficient.SKUID != skuB.ID || insufficient.Available != 0 || insufficient.Requested != 1000000 {
		t.Fatalf("unexpected insufficient detail: %+v", insufficient)
	}
	if !errors.Is(err, ErrInsufficientStock) || !errors.Is(err, ErrState) {
		t.Fatalf("insufficient stock should be a state error")
	}
	if got := f.onHand(t, skuA.ID); got != 10 {
		t.Fatalf("sku A on hand must be unchanged, got %d", got)
	}
	if f.count(t, &models.Sale{}) != 0 || f.count(t, &models.SaleLine{}) != 0 {
		t.Fatalf("no sale rows should exist")
	}
	if f.count(t, &models.Movement{}) != movementsBefore {
		t.Fatalf("no movement should be written")
	}
}

func TestRecordSaleAggregatesDemandPerSKU(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "AGG-1", nil)
	f.buyUnits(t, sku.ID, 10, "1")

	_, err := f.movements.RecordSale(f.db, SaleInput{Lines: []SaleLineInput{
		{SKUID: sku.ID, Qty: dec("6"), UnitPrice: dec("2")},
		{SKUID: sku.ID, Qty: dec("6"), UnitPrice: dec("2")},
	}})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Requested != 12 || insufficient.Available != 10 {
		t.Fatalf("expected aggregated demand 12 vs 10, got %v", err)
	}
}

func TestRecordSaleToZero(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "ZERO-1", nil)
	f.addPackaging(t, sku.ID, "UNIT", "1", true)
	f.addPackaging(t, sku.ID, "PACK", "6", true)
	f.buyUnits(t, sku.ID, 12, "1")

	if _, err := f.movements.RecordSale(f.db, SaleInput{Lines: []SaleLineInput{{SKUID: sku.ID, PackagingLevel: "PACK", Qty: dec("2"), UnitPrice: dec("3")}}}); err != nil {
		t.Fatalf("selling exactly on hand should succeed: %v", err)
	}
	if got := f.onHand(t, sku.ID); got != 0 {
		t.Fatalf("expected 0 on hand, got %d", got)
	}
	_, err := f.movements.RecordSale(f.db, SaleInput{Lines: []SaleLineInput{{SKUID: sku.ID, Qty: dec("1"), UnitPrice: dec("3")}}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock at zero, got %v", err)
	}
}

func TestRecordPurchaseConvertsPackaging(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "CONV-1", nil)
	f.addPackaging(t, sku.ID, "UNIT", "1", true)
	f.addPackaging(t, sku.ID, "CASE", "24", false)

	purchase, err := f.movements.RecordPurchase(f.db, PurchaseInput{
		Supplier: "wholesale",
		Note:     "restock",
		Lines:    []PurchaseLineInput{{SKUID: sku.ID, PackagingLevel: "case", Qty: dec("2"), UnitCost: dec("0.5")}},
	})
	if err != nil {
		t.Fatalf("record purchase failed: %v", err)
	}
	line := purchase.Lines[0]
	if line.QtyUnits != 48 || line.PackagingLevel != "CASE" || !line.QtyPacks.Decimal.Equal(dec("2")) {
		t.Fatalf("unexpected purchase line: %+v", line)
	}
	if purchase.TotalCost.String() != "24.00" {
		t.Fatalf("expected total 24.00, got %s", purchase.TotalCost.String())
	}
	if got := f.onHand(t, sku.ID); got != 48 {
		t.Fatalf("expected 48 on hand, got %d", got)
	}
	stored, err := f.inventory.GetPurchase(t.Context(), purchase.ID)
	if err != nil || stored.Note != "restock" || len(stored.Lines) != 1 {
		t.Fatalf("unexpected stored purchase: %+v err=%v", stored, err)
	}
}

func TestRecordPurchaseSameSKUTwiceWeighsSequentially(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "TWICE-1", nil)
	_, err := f.movements.RecordPurchase(f.db, PurchaseInput{Lines: []PurchaseLineInput{
		{SKUID: sku.ID, Qty: dec("100"), UnitCost: dec("2")},
		{SKUID: sku.ID, Qty: dec("50"), UnitCost: dec("5")},
	}})
	if err != nil {
		t.Fatalf("record purchase failed: %v", err)
	}
	if avg := f.avgCost(t, sku.ID); !avg.Equal(dec("3")) {
		t.Fatalf("expected avg 3, got %s", avg)
	}
	if f.count(t, &models.Movement{}) != 1 || f.count(t, &models.MovementLine{}) != 2 {
		t.Fatalf("expected one movement with two lines")
	}
}

func TestRecordInputErrorsWriteNothing(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "INPUT-1", nil)

	if _, err := f.movements.RecordPurchase(f.db, PurchaseInput{}); !errors.Is(err, ErrEmptyLines) {
		t.Fatalf("expected empty lines, got %v", err)
	}
	_, err := f.movements.RecordPurchase(f.db, PurchaseInput{Lines: []PurchaseLineInput{
		{SKUID: sku.ID, Qty: dec("1"), UnitCost: dec("1")},
		{SKUID: sku.ID, Qty: dec("-1"), UnitCost: dec("1")},
	}})
	var lineErr *LineError
	if !errors.Is(err, ErrInvalidQuantity) || !errors.As(err, &lineErr) || lineErr.Index != 1 {
		t.Fatalf("expected invalid quantity on line 1, got %v", err)
	}
	if _, err := f.movements.RecordPurchase(f.db, PurchaseInput{Lines: []PurchaseLineInput{{SKUID: sku.ID, Qty: dec("1"), UnitCost: dec("-0.01")}}}); !errors.Is(err, ErrInvalidCost) {
		t.Fatalf("expected invalid cost, got %v", err)
	}
	if _, err := f.movements.RecordPurchase(f.db, PurchaseInput{Lines: []PurchaseLineInput{{SKUID: 4242, Qty: dec("1"), UnitCost: dec("1")}}}); !errors.Is(err, ErrSKUNotFound) {
		t.Fatalf("expected sku not found, got %v", err)
	}
	if _, err := f.movements.RecordSale(f.db, SaleInput{Lines: []SaleLineInput{{SKUID: sku.ID, Qty: dec("1"), UnitPrice: dec("-1")}}}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected invalid price, got %v", err)
	}
	if f.count(t, &models.Purchase{}) != 0 || f.count(t, &models.Movement{}) != 0 || f.count(t, &models.SKUCost{}) != 0 {
		t.Fatalf("input errors must not write")
	}
}

func TestBundleSaleSplitsPriceEvenly(t *testing.T) {
	f := newLedgerFixture(t)
	kit := f.createSKU(t, "KIT-B", nil)
	skuA := f.createSKU(t, "KIT-A1", nil)
	skuB := f.createSKU(t, "KIT-B1", nil)
	f.buyUnits(t, skuA.ID, 20, "4")
	f.buyUnits(t, skuB.ID, 20, "6")
	bundle := f.addPackaging(t, kit.ID, "BUNDLE", "", true)
	if _, err := f.packaging.AddComposition(f.db, bundle.ID, skuA.ID, dec("2")); err != nil {
		t.Fatalf("add composition failed: %v", err)
	}
	if _, err := f.packaging.AddComposition(f.db, bundle.ID, skuB.ID, dec("1")); err != nil {
		t.Fatalf("add composition failed: %v", err)
	}

	lines, err := f.movements.BuildBundleSaleLines(f.db, bundle.ID, dec("3"), dec("90"))
	if err != nil {
		t.Fatalf("build bundle lines failed: %v", err)
	}
	if len(lines) != 2 || *lines[0].Units != 6 || *lines[1].Units != 3 {
		t.Fatalf("unexpected bundle lines: %+v", lines)
	}
	for _, line := range lines {
		if !line.UnitPrice.Equal(dec("10")) || line.PackagingLevel != constants.PackagingLevelBundle {
			t.Fatalf("unexpected bundle line price/level: %+v", line)
		}
	}

	sale, err := f.movements.RecordBundleSale(f.db, BundleSaleInput{BundlePackagingID: bundle.ID, QtyBundles: dec("3"), TotalPrice: dec("90")})
	if err != nil {
		t.Fatalf("record bundle sale failed: %v", err)
	}
	if sale.TotalAmount.String() != "90.00" {
		t.Fatalf("expected total 90.00, got %s", sale.TotalAmount.String())
	}
	if f.onHand(t, skuA.ID) != 14 || f.onHand(t, skuB.ID) != 17 {
		t.Fatalf("unexpected on hand after bundle sale")
	}
	if sale.Lines[0].CogsTotal.String() != "24.00" || sale.Lines[1].CogsTotal.String() != "18.00" {
		t.Fatalf("unexpected bundle cogs: %+v", sale.Lines)
	}
}

func TestBundleSaleRejectsPlainPackaging(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "PLAIN-1", nil)
	pack := f.addPackaging(t, sku.ID, "PACK", "6", true)
	if _, err := f.movements.BuildBundleSaleLines(f.db, pack.ID, dec("1"), dec("10")); !errors.Is(err, ErrNotABundle) {
		t.Fatalf("expected not a bundle, got %v", err)
	}
	if _, err := f.movements.BuildBundleSaleLines(f.db, 999, dec("1"), dec("10")); !errors.Is(err, ErrPackagingNotFound) {
		t.Fatalf("expected packaging not found, got %v", err)
	}
}

func TestMixedPurchaseExpandsComposition(t *testing.T) {
	f := newLedgerFixture(t)
	mix := f.createSKU(t, "MIX-1", nil)
	red := f.createSKU(t, "MIX-RED", nil)
	white := f.createSKU(t, "MIX-WHITE", nil)
	mixed := f.addPackaging(t, mix.ID, "CASE", "12", false)
	_, _ = f.packaging.AddComposition(f.db, mixed.ID, red.ID, dec("6"))
	_, _ = f.packaging.AddComposition(f.db, mixed.ID, white.ID, dec("6"))

	purchase, err := f.movements.RecordMixedPurchase(f.db, MixedPurchaseInput{Supplier: "vineyard", ParentPackagingID: mixed.ID, QtyPacks: dec("2"), UnitCost: dec("1.25")})
	if err != nil {
		t.Fatalf("record mixed purchase failed: %v", err)
	}
	if purchase.Note != constants.MixedPurchaseNote || len(purchase.Lines) != 2 {
		t.Fatalf("unexpected mixed purchase: %+v", purchase)
	}
	if f.onHand(t, red.ID) != 12 || f.onHand(t, white.ID) != 12 || f.onHand(t, mix.ID) != 0 {
		t.Fatalf("mixed case should stock its components only")
	}
	if avg := f.avgCost(t, red.ID); !avg.Equal(dec("1.25")) {
		t.Fatalf("unexpected component avg: %s", avg)
	}
	if purchase.TotalCost.String() != "30.00" {
		t.Fatalf("expected total 30.00, got %s", purchase.TotalCost.String())
	}
}

func TestOversizedQuantitiesAreRejected(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "HUGE-1", nil)
	other := f.createSKU(t, "HUGE-2", nil)
	kit := f.createSKU(t, "HUGE-KIT", nil)
	bundle := f.addPackaging(t, kit.ID, "BUNDLE", "", true)
	if _, err := f.packaging.AddComposition(f.db, bundle.ID, sku.ID, dec("1")); err != nil {
		t.Fatalf("add composition failed: %v", err)
	}
	if _, err := f.packaging.AddComposition(f.db, bundle.ID, other.ID, dec("1")); err != nil {
		t.Fatalf("add composition failed: %v", err)
	}

	for _, qty := range []string{"9223372036854775808", "18446744073709551615"} {
		_, err := f.movements.RecordSale(f.db, SaleInput{Lines: []SaleLineInput{{SKUID: sku.ID, Qty: dec(qty), UnitPrice: dec("1")}}})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("sale qty=%s: expected invalid quantity, got %v", qty, err)
		}
		_, err = f.movements.RecordPurchase(f.db, PurchaseInput{Lines: []PurchaseLineInput{{SKUID: sku.ID, Qty: dec(qty), UnitCost: dec("1")}}})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("purchase qty=%s: expected invalid quantity, got %v", qty, err)
		}
		_, err = f.movements.RecordBundleSale(f.db, BundleSaleInput{BundlePackagingID: bundle.ID, QtyBundles: dec(qty), TotalPrice: dec("1")})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("bundle sale qty=%s: expected invalid quantity, got %v", qty, err)
		}
	}

	maxQty := "9223372036854775807"
	_, err := f.movements.RecordSale(f.db, SaleInput{Lines: []SaleLineInput{
		{SKUID: sku.ID, Qty: dec(maxQty), UnitPrice: dec("1")},
		{SKUID: sku.ID, Qty: dec(maxQty), UnitPrice: dec("1")},
	}})
	var lineErr *LineError
	if !errors.Is(err, ErrInvalidQuantity) || !errors.As(err, &lineErr) || lineErr.Index != 1 {
		t.Fatalf("summed sale demand should overflow on line 1, got %v", err)
	}
	_, err = f.movements.RecordPurchase(f.db, PurchaseInput{Lines: []PurchaseLineInput{
		{SKUID: sku.ID, Qty: dec(maxQty), UnitCost: dec("1")},
		{SKUID: sku.ID, Qty: dec("1"), UnitCost: dec("1")},
	}})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("summed purchase units should overflow, got %v", err)
	}
	if _, err := f.movements.BuildBundleSaleLines(f.db, bundle.ID, dec(maxQty), dec("1")); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("bundle total units should overflow, got %v", err)
	}

	if f.onHand(t, sku.ID) != 0 || f.onHand(t, other.ID) != 0 {
		t.Fatalf("rejected quantities must not move stock")
	}
	if f.count(t, &models.Movement{}) != 0 || f.count(t, &models.Sale{}) != 0 || f.count(t, &models.Purchase{}) != 0 {
		t.Fatalf("rejected quantities must not write documents")
	}
}

func TestPurchaseRejectsStockBeyondCapacity(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "CAP-1", nil)
	f.buyUnits(t, sku.ID, 5, "1")

	_, err := f.movements.RecordPurchase(f.db, PurchaseInput{Lines: []PurchaseLineInput{{SKUID: sku.ID, Qty: dec("9223372036854775807"), UnitCost: dec("1")}}})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if got := f.onHand(t, sku.ID); got != 5 {
		t.Fatalf("expected on hand 5, got %d", got)
	}
}
