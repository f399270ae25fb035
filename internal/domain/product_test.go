package domain

import (
	"errors"
	"testing"
)

func TestCheckStock(t *testing.T) {
	cases := []struct {
		name           string
		track, back    bool
		available, qty int32
		wantErr        error
	}{
		{"inventory not tracked", false, false, 0, 100, nil},
		{"enough stock", true, false, 10, 10, nil},
		{"not enough, backorder allowed", true, true, 1, 5, nil},
		{"not enough, backorder forbidden", true, false, 1, 5, ErrInsufficientStock},
		{"zero stock", true, false, 0, 1, ErrInsufficientStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckStock(tc.track, tc.back, tc.available, tc.qty)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestProductVariantLookup(t *testing.T) {
	product := Product{
		Variants: []ProductVariant{
			{ID: "v-1", Title: "Small"},
			{ID: "v-2", Title: "Large"},
		},
	}

	if !product.HasVariants() {
		t.Fatal("expected product to report variants")
	}

	variant, err := product.Variant("v-2")
	if err != nil {
		t.Fatalf("variant lookup failed: %v", err)
	}
	if variant.Title != "Large" {
		t.Fatalf("unexpected variant: %+v", variant)
	}

	if _, err := product.Variant("v-missing"); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}

	bare := Product{}
	if bare.HasVariants() {
		t.Fatal("product without variants must not report variants")
	}
}

func TestProductValidate(t *testing.T) {
	product := Product{TenantID: "tenant-1", PriceMinor: 100}
	if errs := product.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid product, got %v", errs)
	}

	product.TenantID = ""
	product.PriceMinor = -1
	product.Variants = []ProductVariant{{PriceMinor: -5}}
	errs := product.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
}

func TestCustomerValidate(t *testing.T) {
	customer := Customer{TenantID: "tenant-1", Email: "a@b.c"}
	if errs := customer.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid customer, got %v", errs)
	}

	customer = Customer{}
	errs := customer.Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsNotFound(ErrOrderNotFound) || !IsNotFound(ErrVariantNotFound) {
		t.Fatal("not-found sentinels must classify as not found")
	}
	if IsNotFound(ErrInsufficientStock) {
		t.Fatal("stock error must not classify as not found")
	}

	if !IsConflict(ErrCustomerEmailTaken) || !IsConflict(ErrOrderVersionConflict) {
		t.Fatal("conflict sentinels must classify as conflict")
	}
	if IsConflict(ErrOrderNotFound) {
		t.Fatal("not-found error must not classify as conflict")
	}

	if !IsValidation(ErrInsufficientStock) || !IsValidation(ErrOrderAlreadyCancelled) {
		t.Fatal("business-rule sentinels must classify as validation")
	}
	if IsValidation(ErrOrderVersionConflict) {
		t.Fatal("version conflict must not classify as validation")
	}

	if !IsVersionConflict(ErrOrderVersionConflict) || IsVersionConflict(ErrOrderNotFound) {
		t.Fatal("unexpected version conflict classification")
	}
}
