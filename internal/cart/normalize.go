package cart

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"storefront/internal/model"
)

const defaultImage = "/no-image.png"

// canonicalItems extracts data.items from a cart response. ok is false when
// the payload carries no item list.
func canonicalItems(data json.RawMessage) (items []LineItem, ok bool) {
	if len(data) == 0 {
		return nil, false
	}

	var payload struct {
		Items *[]json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Items == nil {
		return nil, false
	}

	lines := make([]LineItem, 0, len(*payload.Items))
	for _, raw := range *payload.Items {
		if line, ok := normalizeLine(raw); ok {
			lines = append(lines, line)
		}
	}
	return mergeDuplicates(lines), true
}

// rawLine is every field name the backend has been seen to use for a line.
type rawLine struct {
	Product       json.RawMessage `json:"product"`
	ProductDetail json.RawMessage `json:"product_detail"`
	ProductID     model.ID        `json:"product_id"`
	ProductIDAlt  model.ID        `json:"productId"`
	Name          string          `json:"name"`
	Title         string          `json:"title"`
	Price         model.Price     `json:"price"`
	UnitPrice     model.Price     `json:"unit_price"`
	Image         string          `json:"image"`
	StoreID       model.ID        `json:"store_id"`
	StoreIDAlt    model.ID        `json:"storeId"`
	Store         json.RawMessage `json:"store"`
	Quantity      flexInt         `json:"quantity"`
	Qty           flexInt         `json:"qty"`
	Count         flexInt         `json:"count"`
}

type rawProduct struct {
	ID        model.ID    `json:"id"`
	ProductID model.ID    `json:"product_id"`
	Name      string      `json:"name"`
	Title     string      `json:"title"`
	Price     model.Price `json:"price"`
	UnitPrice model.Price `json:"unit_price"`
	Image     string      `json:"image"`
}

func normalizeLine(raw json.RawMessage) (LineItem, bool) {
	var rl rawLine
	if err := json.Unmarshal(raw, &rl); err != nil {
		return LineItem{}, false
	}

	product, ok := embeddedProduct(rl.Product)
	if !ok {
		product, ok = embeddedProduct(rl.ProductDetail)
	}
	if !ok {
		product = Product{
			ID:    firstID(rl.ProductID, rl.ProductIDAlt),
			Name:  firstString(rl.Name, rl.Title),
			Price: firstPrice(rl.Price, rl.UnitPrice),
		}
	}
	if product.Image == "" {
		product.Image = firstString(rl.Image, defaultImage)
	}
	if product.ID.IsZero() {
		return LineItem{}, false
	}

	quantity := int(rl.Quantity)
	if quantity <= 0 {
		quantity = int(rl.Qty)
	}
	if quantity <= 0 {
		quantity = int(rl.Count)
	}
	if quantity <= 0 {
		quantity = 1
	}

	return LineItem{
		Product:  product,
		StoreID:  firstID(rl.StoreID, rl.StoreIDAlt, storeRef(rl.Store)),
		Quantity: quantity,
	}, true
}

func embeddedProduct(raw json.RawMessage) (Product, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Product{}, false
	}
	var rp rawProduct
	if err := json.Unmarshal(raw, &rp); err != nil {
		return Product{}, false
	}
	return Product{
		ID:    firstID(rp.ID, rp.ProductID),
		Name:  firstString(rp.Name, rp.Title),
		Price: firstPrice(rp.Price, rp.UnitPrice),
		Image: rp.Image,
	}, true
}

// storeRef reads "store" as an id or as an object with an id.
func storeRef(raw json.RawMessage) model.ID {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '{' {
		var obj struct {
			ID      model.ID `json:"id"`
			StoreID model.ID `json:"store_id"`
		}
		if json.Unmarshal(raw, &obj) != nil {
			return ""
		}
		return firstID(obj.ID, obj.StoreID)
	}
	var id model.ID
	if json.Unmarshal(raw, &id) != nil {
		return ""
	}
	return id
}

func firstID(ids ...model.ID) model.ID {
	for _, id := range ids {
		if !id.IsZero() {
			return id
		}
	}
	return ""
}

func firstString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func firstPrice(ps ...model.Price) model.Price {
	for _, p := range ps {
		if p != 0 {
			return p
		}
	}
	return 0
}

// flexInt accepts 3, 3.0 and "3". Anything else reads as 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = flexInt(f)
		return nil
	}
	*n = 0
	return nil
}
