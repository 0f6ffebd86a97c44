package domain

import "testing"

func TestEnrich(t *testing.T) {
	line := CartLine{ID: 1, ProductID: 10, Quantity: 2}
	product := Product{ID: 10, Name: "Mug", PriceMinor: 450, Image: "mug.png", Available: true, Quantity: 5}

	enriched := Enrich(line, product)

	if enriched.ID != 1 || enriched.ProductID != 10 || enriched.Quantity != 2 {
		t.Fatalf("cart line fields must be preserved, got %+v", enriched.CartLine)
	}
	if enriched.ProductImage != "mug.png" || !enriched.IsAvailable {
		t.Fatalf("unexpected enrichment %+v", enriched)
	}
	if got := enriched.SubtotalMinor(); got != 900 {
		t.Fatalf("expected subtotal 900, got %d", got)
	}
}

func TestEnrich_OutOfStock(t *testing.T) {
	enriched := Enrich(CartLine{ID: 1, ProductID: 10, Quantity: 1}, Product{ID: 10, Available: true, Quantity: 0})
	if enriched.IsAvailable {
		t.Fatal("product without stock must not be available")
	}
}

func TestProductCanFulfil(t *testing.T) {
	product := Product{Available: true, Quantity: 3}

	if !product.CanFulfil(3) {
		t.Fatal("expected qty 3 to be fulfillable")
	}
	if product.CanFulfil(4) {
		t.Fatal("qty 4 exceeds stock")
	}
	product.Available = false
	if product.CanFulfil(1) {
		t.Fatal("unavailable product cannot fulfil")
	}
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{name: "defaults", in: PageRequest{}, want: PageRequest{Number: 0, Size: DefaultPageSize}},
		{name: "negative number", in: PageRequest{Number: -2, Size: 5}, want: PageRequest{Number: 0, Size: 5}},
		{name: "too large", in: PageRequest{Number: 3, Size: 1000}, want: PageRequest{Number: 3, Size: MaxPageSize}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Fatalf("Normalize() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestEmptyPage(t *testing.T) {
	page := EmptyPage[WishlistItem](PageRequest{Number: 2, Size: 20})

	if !page.IsEmpty() || page.Items == nil {
		t.Fatal("empty page must carry a non-nil empty slice")
	}
	if page.PageNumber != 2 || page.PageSize != 20 || !page.LastPage || page.TotalElements != 0 {
		t.Fatalf("unexpected metadata %+v", page)
	}
}
