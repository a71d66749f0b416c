package storeapi

import "storefront/internal/model"

// Category groups stores. Stores reference a category by Name.
type Category struct {
	ID    model.ID `json:"id"`
	Name  string   `json:"name"`
	Slug  string   `json:"slug"`
	Image string   `json:"image"`
	Icon  string   `json:"icon"`
}

// Store is the shape of a store in the built-in catalog.
type Store struct {
	ID          model.ID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Banner      string   `json:"banner"`
	Logo        string   `json:"logo"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	Category    string   `json:"category"`
	IsVerified  bool     `json:"isVerified"`
}

// Product is the shape of a product in the built-in catalog.
type Product struct {
	ID          model.ID    `json:"id"`
	StoreID     model.ID    `json:"storeId"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       model.Price `json:"price"`
	Image       string      `json:"image"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"reviewCount"`
	InStock     bool        `json:"inStock"`
}

var mockCategories = []Category{
	{ID: "1", Name: "Electronics", Slug: "electronics", Image: "https://via.placeholder.com/200x150?text=Electronics", Icon: "📱"},
	{ID: "2", Name: "Fashion", Slug: "fashion", Image: "https://via.placeholder.com/200x150?text=Fashion", Icon: "👗"},
	{ID: "3", Name: "Home & Garden", Slug: "home-garden", Image: "https://via.placeholder.com/200x150?text=Home+Garden", Icon: "🏠"},
	{ID: "4", Name: "Sports", Slug: "sports", Image: "https://via.placeholder.com/200x150?text=Sports", Icon: "⚽"},
	{ID: "5", Name: "Books", Slug: "books", Image: "https://via.placeholder.com/200x150?text=Books", Icon: "📚"},
	{ID: "6", Name: "Beauty", Slug: "beauty", Image: "https://via.placeholder.com/200x150?text=Beauty", Icon: "💄"},
}

var mockStores = []Store{
	{
		ID:          "1",
		Name:        "TechWorld Store",
		Description: "Your one-stop shop for all electronics",
		Banner:      "https://via.placeholder.com/800x300?text=TechWorld+Banner",
		Logo:        "https://via.placeholder.com/100x100?text=TW",
		Rating:      4.5,
		ReviewCount: 128,
		Category:    "Electronics",
		IsVerified:  true,
	},
	{
		ID:          "2",
		Name:        "Fashion Hub",
		Description: "Trendy fashion for everyone",
		Banner:      "https://via.placeholder.com/800x300?text=Fashion+Hub+Banner",
		Logo:        "https://via.placeholder.com/100x100?text=FH",
		Rating:      4.2,
		ReviewCount: 89,
		Category:    "Fashion",
		IsVerified:  true,
	},
	{
		ID:          "3",
		Name:        "Home Decor Plus",
		Description: "Beautiful home decorations",
		Banner:      "https://via.placeholder.com/800x300?text=Home+Decor+Banner",
		Logo:        "https://via.placeholder.com/100x100?text=HD",
		Rating:      4.7,
		ReviewCount: 156,
		Category:    "Home & Garden",
		IsVerified:  false,
	},
}

var mockProducts = []Product{
	{ID: "1", StoreID: "1", Name: "Wireless Headphones", Description: "High-quality wireless headphones with noise cancellation", Price: 99.99, Image: "https://via.placeholder.com/300x300?text=Headphones", Rating: 4.3, ReviewCount: 45, InStock: true},
	{ID: "2", StoreID: "1", Name: "Smartphone Case", Description: "Protective case for your smartphone", Price: 19.99, Image: "https://via.placeholder.com/300x300?text=Phone+Case", Rating: 4.1, ReviewCount: 23, InStock: true},
	{ID: "3", StoreID: "1", Name: "Bluetooth Speaker", Description: "Portable Bluetooth speaker with great sound", Price: 79.99, Image: "https://via.placeholder.com/300x300?text=Speaker", Rating: 4.5, ReviewCount: 67, InStock: false},
	{ID: "4", StoreID: "2", Name: "Summer Dress", Description: "Elegant summer dress perfect for any occasion", Price: 49.99, Image: "https://via.placeholder.com/300x300?text=Summer+Dress", Rating: 4.4, ReviewCount: 34, InStock: true},
	{ID: "5", StoreID: "2", Name: "Denim Jacket", Description: "Classic denim jacket for casual wear", Price: 69.99, Image: "https://via.placeholder.com/300x300?text=Denim+Jacket", Rating: 4.2, ReviewCount: 28, InStock: true},
	{ID: "6", StoreID: "3", Name: "Decorative Vase", Description: "Beautiful ceramic vase for your home", Price: 39.99, Image: "https://via.placeholder.com/300x300?text=Vase", Rating: 4.6, ReviewCount: 19, InStock: true},
	{ID: "7", StoreID: "3", Name: "Wall Art", Description: "Modern wall art to enhance your space", Price: 89.99, Image: "https://via.placeholder.com/300x300?text=Wall+Art", Rating: 4.8, ReviewCount: 42, InStock: true},
}

func mockStore(id string) (Store, bool) {
	for _, s := range mockStores {
		if s.ID.String() == id {
			return s, true
		}
	}
	return Store{}, false
}
