package service

import (
	"errors"
	"testing"

	"github.com/stockledger/internal/models"
)

func TestEnsureAttributeIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	first, err := f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "volume", Label: "Volume", Type: "number", UnitConstraint: "ml"})
	if err != nil {
		t.Fatalf("ensure attribute failed: %v", err)
	}
	second, err := f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "volume", Label: "Other", Type: "text"})
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected same id, got %d and %d", first, second)
	}
	var def models.AttributeDefinition
	if err := f.db.First(&def, first).Error; err != nil {
		t.Fatalf("load definition failed: %v", err)
	}
	if def.Label != "Volume" || def.Type != "number" || def.UnitConstraint != "ml" {
		t.Fatalf("first definition should be kept, got %+v", def)
	}
	if f.count(t, &models.AttributeDefinition{}) != 1 {
		t.Fatalf("expected single definition")
	}
}

func TestEnsureAttributeRejectsBadInput(t *testing.T) {
	f := newLedgerFixture(t)
	if _, err := f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "x", Type: "json"}); !errors.Is(err, ErrUnsupportedAttributeType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
	if _, err := f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "  ", Type: "text"}); !errors.Is(err, ErrInvalidAttributeCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}
}

func TestSetAttributeValueCoercion(t *testing.T) {
	f := newLedgerFixture(t)
	f.createUOM(t, "ml")
	f.createUOM(t, "g")
	sku := f.createSKU(t, "SHAMPOO", nil)
	for _, spec := range []AttributeSpec{
		{Code: "volume", Type: "number", UnitConstraint: "ml"},
		{Code: "weight", Type: "number"},
		{Code: "scent", Type: "enum", EnumOptions: []string{"lavender", "citrus"}},
		{Code: "brand_line", Type: "text"},
		{Code: "vegan", Type: "boolean"},
		{Code: "launched", Type: "date"},
	} {
		if _, err := f.attributes.EnsureAttribute(f.db, spec); err != nil {
			t.Fatalf("ensure %s failed: %v", spec.Code, err)
		}
	}

	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "volume", " 250.5 ", ""); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "weight", "300", "g"); err != nil {
		t.Fatalf("set weight failed: %v", err)
	}
	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "scent", " citrus ", ""); err != nil {
		t.Fatalf("set scent failed: %v", err)
	}
	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "brand_line", "  Pro  ", ""); err != nil {
		t.Fatalf("set text failed: %v", err)
	}
	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "vegan", "Sí", ""); err != nil {
		t.Fatalf("set boolean failed: %v", err)
	}
	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "launched", "2024-13-45", ""); err != nil {
		t.Fatalf("date should be opaque, got %v", err)
	}

	values, err := f.attributes.GetSKUAttributes(f.db, sku.ID)
	if err != nil {
		t.Fatalf("get attributes failed: %v", err)
	}
	volume := values["volume"]
	if volume.Number == nil || !volume.Number.Equal(dec("250.5")) || volume.Unit != "ml" {
		t.Fatalf("unexpected volume: %+v", volume)
	}
	if weight := values["weight"]; weight.Number == nil || weight.Unit != "g" {
		t.Fatalf("unexpected weight: %+v", weight)
	}
	if values["scent"].Text != "citrus" || values["brand_line"].Text != "Pro" {
		t.Fatalf("unexpected text values: %+v %+v", values["scent"], values["brand_line"])
	}
	if vegan := values["vegan"]; vegan.Boolean == nil || !*vegan.Boolean {
		t.Fatalf("expected vegan true, got %+v", vegan)
	}
	if values["launched"].Text != "2024-13-45" {
		t.Fatalf("unexpected date: %+v", values["launched"])
	}

	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "vegan", "nope", ""); err != nil {
		t.Fatalf("boolean should never fail: %v", err)
	}
	if err := f.attributes.SetAttributeValue(f.db, sku.ID, "volume", "300", "ml"); err != nil {
		t.Fatalf("overwrite volume failed: %v", err)
	}
	values, err = f.attributes.GetSKUAttributes(f.db, sku.ID)
	if err != nil {
		t.Fatalf("reload attributes failed: %v", err)
	}
	if vegan := values["vegan"]; vegan.Boolean == nil || *vegan.Boolean {
		t.Fatalf("expected vegan false, got %+v", vegan)
	}
	if !values["volume"].Number.Equal(dec("300")) {
		t.Fatalf("expected overwritten volume, got %+v", values["volume"])
	}
	if f.count(t, &models.SKUAttributeValue{}) != 6 {
		t.Fatalf("upsert should not duplicate rows")
	}
}

func TestSetAttributeValueErrors(t *testing.T) {
	f := newLedgerFixture(t)
	f.createUOM(t, "ml")
	f.createUOM(t, "g")
	sku := f.createSKU(t, "ERR-1", nil)
	_, _ = f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "volume", Type: "number", UnitConstraint: "ml"})
	_, _ = f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "scent", Type: "enum", EnumOptions: []string{"lavender"}})

	cases := []struct {
		name string
		code string
		raw  string
		unit string
		want error
	}{
		{name: "unknown attribute", code: "color", raw: "red", want: ErrUnknownAttribute},
		{name: "number parse", code: "volume", raw: "abc", want: ErrTypeMismatch},
		{name: "enum option", code: "scent", raw: "rose", want: ErrInvalidEnumValue},
		{name: "unknown unit", code: "volume", raw: "10", unit: "oz", want: ErrUnknownUnit},
		{name: "unit constraint", code: "volume", raw: "10", unit: "g", want: ErrUnitMismatch},
	}
	for _, tc := range cases {
		err := f.attributes.SetAttributeValue(f.db, sku.ID, tc.code, tc.raw, tc.unit)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
		if !errors.Is(err, ErrInput) {
			t.Fatalf("%s: expected input error kind", tc.name)
		}
	}
	if err := f.attributes.SetAttributeValue(f.db, 9999, "volume", "1", ""); !errors.Is(err, ErrSKUNotFound) {
		t.Fatalf("expected sku not found, got %v", err)
	}
	if f.count(t, &models.SKUAttributeValue{}) != 0 {
		t.Fatalf("failed coercion must not write values")
	}
}

func TestParseBooleanToken(t *testing.T) {
	for _, token := range []string{"1", "true", "TRUE", "sí", "si", "yes", "On", " yes "} {
		if !parseBooleanToken(token) {
			t.Fatalf("%q should be true", token)
		}
	}
	for _, token := range []string{"0", "false", "no", "", "y", "verdadero"} {
		if parseBooleanToken(token) {
			t.Fatalf("%q should be false", token)
		}
	}
}

func TestSetSKUTagsReplacesWholesale(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "TAG-1", nil)
	if err := f.attributes.SetSKUTags(f.db, sku.ID, []string{"organic", " summer ", "organic", ""}); err != nil {
		t.Fatalf("set tags failed: %v", err)
	}
	names, err := f.catalog.ListTagNamesBySKU(sku.ID)
	if err != nil {
		t.Fatalf("list tags failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 tags, got %v", names)
	}
	if err := f.attributes.SetSKUTags(f.db, sku.ID, []string{"winter"}); err != nil {
		t.Fatalf("replace tags failed: %v", err)
	}
	names, err = f.catalog.ListTagNamesBySKU(sku.ID)
	if err != nil {
		t.Fatalf("list tags failed: %v", err)
	}
	if len(names) != 1 || names[0] != "winter" {
		t.Fatalf("expected only winter, got %v", names)
	}
	if f.count(t, &models.Tag{}) != 3 {
		t.Fatalf("tags should be created lazily and kept")
	}
}

func TestValidateSKURequiredAttributeByCategory(t *testing.T) {
	f := newLedgerFixture(t)
	shirts := f.createCategory(t, "Shirts")
	shoes := f.createCategory(t, "Shoes")
	shirt := f.createSKU(t, "SHIRT-1", &shirts.ID)
	shoe := f.createSKU(t, "SHOE-1", &shoes.ID)
	if _, err := f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "color", Label: "Color", Type: "text"}); err != nil {
		t.Fatalf("ensure color failed: %v", err)
	}
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "color", AppliesTo: "category", TargetID: &shirts.ID, Required: true}); err != nil {
		t.Fatalf("add rule failed: %v", err)
	}

	err := f.attributes.ValidateSKU(f.db, shirt.ID)
	if !errors.Is(err, ErrMissingRequiredAttribute) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected missing required attribute, got %v", err)
	}
	var violation *AttributeViolation
	if !errors.As(err, &violation) || violation.Code != "color" || violation.SKUID != shirt.ID {
		t.Fatalf("expected violation for color, got %+v", violation)
	}
	if err := f.attributes.ValidateSKU(f.db, shoe.ID); err != nil {
		t.Fatalf("rule should not apply to other categories, got %v", err)
	}

	if err := f.attributes.SetAttributeValue(f.db, shirt.ID, "color", "blue", ""); err != nil {
		t.Fatalf("set color failed: %v", err)
	}
	if err := f.attributes.ValidateSKU(f.db, shirt.ID); err != nil {
		t.Fatalf("shirt with color should pass, got %v", err)
	}
}

func TestValidateSKURangeAndFormat(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "VAL-1", nil)
	_, _ = f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "abv", Label: "ABV", Type: "number"})
	_, _ = f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "batch", Label: "Batch", Type: "text"})
	minABV, maxABV := dec("0"), dec("15")
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "abv", MinNum: &minABV, MaxNum: &maxABV}); err != nil {
		t.Fatalf("add range rule failed: %v", err)
	}
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "batch", Regex: "[A-Z]{3}"}); err != nil {
		t.Fatalf("add regex rule failed: %v", err)
	}

	if err := f.attributes.ValidateSKU(f.db, sku.ID); err != nil {
		t.Fatalf("optional absent attributes should pass, got %v", err)
	}

	_ = f.attributes.SetAttributeValue(f.db, sku.ID, "abv", "16", "")
	if err := f.attributes.ValidateSKU(f.db, sku.ID); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	_ = f.attributes.SetAttributeValue(f.db, sku.ID, "abv", "15", "")

	_ = f.attributes.SetAttributeValue(f.db, sku.ID, "batch", "ABCD", "")
	err := f.attributes.ValidateSKU(f.db, sku.ID)
	var violation *AttributeViolation
	if !errors.Is(err, ErrFormatViolation) || !errors.As(err, &violation) || violation.Code != "batch" {
		t.Fatalf("regex must match the whole value, got %v", err)
	}
	_ = f.attributes.SetAttributeValue(f.db, sku.ID, "batch", "ABC", "")
	if err := f.attributes.ValidateSKU(f.db, sku.ID); err != nil {
		t.Fatalf("valid values should pass, got %v", err)
	}
	_ = f.attributes.SetAttributeValue(f.db, sku.ID, "batch", "", "")
	if err := f.attributes.ValidateSKU(f.db, sku.ID); err != nil {
		t.Fatalf("empty text skips regex, got %v", err)
	}
}

func TestValidateSKUTagScopedRule(t *testing.T) {
	f := newLedgerFixture(t)
	sku := f.createSKU(t, "TAGRULE-1", nil)
	_, _ = f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "origin", Label: "Origin", Type: "text"})
	tag, err := f.catalog.EnsureTag("imported")
	if err != nil {
		t.Fatalf("ensure tag failed: %v", err)
	}
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "origin", AppliesTo: "tag", TargetID: &tag.ID, Required: true}); err != nil {
		t.Fatalf("add tag rule failed: %v", err)
	}
	if err := f.attributes.ValidateSKU(f.db, sku.ID); err != nil {
		t.Fatalf("untagged sku should pass, got %v", err)
	}
	if err := f.attributes.SetSKUTags(f.db, sku.ID, []string{"imported"}); err != nil {
		t.Fatalf("set tags failed: %v", err)
	}
	if err := f.attributes.ValidateSKU(f.db, sku.ID); !errors.Is(err, ErrMissingRequiredAttribute) {
		t.Fatalf("tagged sku should require origin, got %v", err)
	}
}

func TestAddRuleValidation(t *testing.T) {
	f := newLedgerFixture(t)
	_, _ = f.attributes.EnsureAttribute(f.db, AttributeSpec{Code: "size", Type: "number"})
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "missing"}); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected unknown attribute, got %v", err)
	}
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "size", AppliesTo: "category"}); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("category rule without target should fail, got %v", err)
	}
	lo, hi := dec("5"), dec("1")
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "size", MinNum: &lo, MaxNum: &hi}); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("inverted range should fail, got %v", err)
	}
	if _, err := f.attributes.AddRule(f.db, AttributeRuleSpec{AttrCode: "size", Regex: "("}); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("bad regex should fail, got %v", err)
	}
}
