//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[productListResponse](t, resp)
	if list.Total != 5 {
		t.Fatalf("expected 5 products, got %d", list.Total)
	}
	if len(list.Products) != 5 {
		t.Fatalf("expected 5 products in page, got %d", len(list.Products))
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[productListResponse](t, resp)

	var kibble *productResponse
	for i := range list.Products {
		if list.Products[i].ID == "prod-adult-chicken-kibble" {
			kibble = &list.Products[i]
			break
		}
	}

	if kibble == nil {
		t.Fatal("product prod-adult-chicken-kibble not found")
	}
	if kibble.Name != "Adult Chicken Kibble" {
		t.Errorf("name: got %q, want %q", kibble.Name, "Adult Chicken Kibble")
	}
	if kibble.Brand != "Barkers" {
		t.Errorf("brand: got %q, want %q", kibble.Brand, "Barkers")
	}
	if kibble.Discount != 10 {
		t.Errorf("discountPercentage: got %v, want 10", kibble.Discount)
	}
	if len(kibble.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(kibble.Variants))
	}

	var threeKg *variantResponse
	for i := range kibble.Variants {
		if kibble.Variants[i].ID == "var-ack-3kg" {
			threeKg = &kibble.Variants[i]
			break
		}
	}
	if threeKg == nil {
		t.Fatal("variant var-ack-3kg not found")
	}
	// 1499 with 10% off.
	if threeKg.Price != 1349.1 {
		t.Errorf("price: got %v, want 1349.1", threeKg.Price)
	}
	if threeKg.OldPrice != 1499 {
		t.Errorf("oldPrice: got %v, want 1499", threeKg.OldPrice)
	}
	if threeKg.Stock <= 0 {
		t.Errorf("stock: got %d, want > 0", threeKg.Stock)
	}
}

func TestListProducts_CategoryFilter(t *testing.T) {
	resp := doGet(t, "/api/products?category=cat-dog-food")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[productListResponse](t, resp)
	if list.Total != 2 {
		t.Fatalf("expected 2 dog food products, got %d", list.Total)
	}
	for _, p := range list.Products {
		if p.CategoryID != "cat-dog-food" {
			t.Errorf("product %s: category %q, want cat-dog-food", p.ID, p.CategoryID)
		}
	}
}

func TestListProducts_Search(t *testing.T) {
	resp := doGet(t, "/api/products?search=shampoo")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[productListResponse](t, resp)
	if list.Total != 1 {
		t.Fatalf("expected 1 match, got %d", list.Total)
	}
	if list.Products[0].ID != "prod-oatmeal-shampoo" {
		t.Errorf("got %q, want prod-oatmeal-shampoo", list.Products[0].ID)
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/prod-ocean-whitefish")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	product := decodeJSON[productResponse](t, resp)
	if product.ID != "prod-ocean-whitefish" {
		t.Errorf("id: got %q, want prod-ocean-whitefish", product.ID)
	}
	if product.Name != "Ocean Whitefish Dinner" {
		t.Errorf("name: got %q, want %q", product.Name, "Ocean Whitefish Dinner")
	}
	if len(product.Variants) != 2 {
		t.Errorf("expected 2 variants, got %d", len(product.Variants))
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/prod-missing")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}

func TestListCategories(t *testing.T) {
	resp := doGet(t, "/api/categories")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[categoryListResponse](t, resp)
	if len(list.Categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(list.Categories))
	}

	var grooming *categoryResponse
	for i := range list.Categories {
		if list.Categories[i].ID == "cat-grooming" {
			grooming = &list.Categories[i]
			break
		}
	}
	if grooming == nil {
		t.Fatal("category cat-grooming not found")
	}
	if grooming.Offer != 10 {
		t.Errorf("offerPercentage: got %v, want 10", grooming.Offer)
	}
}
