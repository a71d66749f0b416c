package storeapi

import (
	"context"
	"encoding/json"
	"strings"

	"storefront/internal/model"
)

// The backend has no category or product-detail endpoints. Categories,
// the store directory and product lookups are served from the built-in
// catalog.

const (
	msgCategoryMissing = "Category not found"
	msgProductMissing  = "Product not found"
)

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) *model.Result {
	return model.OKWith(mockCategories)
}

// ListStores returns the store directory.
func (c *Client) ListStores(ctx context.Context) *model.Result {
	return model.OKWith(mockStores)
}

// GetCategory looks a category up by slug.
func (c *Client) GetCategory(ctx context.Context, slug string) *model.Result {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.FromError(model.NewValidationError("slug", "Invalid category"))
	}
	cat, ok := categoryBySlug(slug)
	if !ok {
		return model.Fail(model.FailureNotFound, msgCategoryMissing)
	}
	return model.OKWith(cat)
}

// StoresByCategory lists the stores in a category. An all-digit argument is
// a category id, anything else a slug.
func (c *Client) StoresByCategory(ctx context.Context, idOrSlug string) *model.Result {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return model.FromError(model.NewValidationError("category", "Invalid category"))
	}

	var (
		cat Category
		ok  bool
	)
	if isDigits(idOrSlug) {
		cat, ok = categoryByID(idOrSlug)
	} else {
		cat, ok = categoryBySlug(idOrSlug)
	}
	if !ok {
		res := model.Fail(model.FailureNotFound, msgCategoryMissing)
		res.Data = json.RawMessage(`[]`)
		return res
	}

	stores := []Store{}
	for _, s := range mockStores {
		if s.Category == cat.Name {
			stores = append(stores, s)
		}
	}
	return model.OKWith(stores)
}

// GetProduct looks a product up by id across every store.
func (c *Client) GetProduct(ctx context.Context, id string) *model.Result {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.FromError(model.NewValidationError("product_id", "Invalid product id"))
	}
	for _, p := range mockProducts {
		if p.ID.String() == id {
			return model.OKWith(p)
		}
	}
	return model.Fail(model.FailureNotFound, msgProductMissing)
}

func categoryBySlug(slug string) (Category, bool) {
	for _, cat := range mockCategories {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return Category{}, false
}

// categoryByID compares numerically, so "01" finds category 1.
func categoryByID(id string) (Category, bool) {
	id = strings.TrimLeft(id, "0")
	for _, cat := range mockCategories {
		if cat.ID.String() == id {
			return cat, true
		}
	}
	return Category{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
