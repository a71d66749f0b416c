// MCP transport for the storefront gateway using the official MCP Go SDK.
// Exposes the cart as MCP tools.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/cart"
	"storefront/internal/model"
)

// === MCP Tool Input/Output Types ===
// Identifiers are plain strings here; the schema generator sees
// model.ID as a string while its JSON form may be a number.

// GetCartInput is the input schema for get_cart.
type GetCartInput struct{}

// AddToCartInput is the input schema for add_to_cart.
type AddToCartInput struct {
	ProductID   string  `json:"product_id" jsonschema:"product ID"`
	StoreID     string  `json:"store_id" jsonschema:"store the product is sold by"`
	Quantity    int     `json:"quantity,omitempty" jsonschema:"quantity to add, default 1"`
	Name        string  `json:"name,omitempty" jsonschema:"product name for display"`
	Price       float64 `json:"price,omitempty" jsonschema:"unit price"`
	Image       string  `json:"image,omitempty" jsonschema:"product image URL"`
	ReplaceCart bool    `json:"replace_cart,omitempty" jsonschema:"empty the cart if it holds another store's items"`
}

// UpdateCartQuantityInput is the input schema for update_cart_quantity.
type UpdateCartQuantityInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
	StoreID   string `json:"store_id" jsonschema:"store ID"`
	Quantity  int    `json:"quantity" jsonschema:"new quantity, 0 removes the line"`
}

// RemoveFromCartInput is the input schema for remove_from_cart.
type RemoveFromCartInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
	StoreID   string `json:"store_id" jsonschema:"store ID"`
}

// ClearCartInput is the input schema for clear_cart.
type ClearCartInput struct{}

// CartLine is one line in a tool result.
type CartLine struct {
	ProductID string  `json:"product_id"`
	StoreID   string  `json:"store_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

// CartOutput is the cart as tools report it.
type CartOutput struct {
	Success   bool       `json:"success"`
	Cancelled bool       `json:"cancelled,omitempty"`
	Message   string     `json:"message,omitempty"`
	Items     []CartLine `json:"items"`
	Count     int        `json:"count"`
	Total     float64    `json:"total"`
}

// NewMCPServer creates an MCP server with cart tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront cart operations. A cart holds items from one store; " +
				"set replace_cart to empty it when adding from a different store.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart lines, item count and total.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product from a store to the cart. Quantities merge with an existing line.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_quantity",
		Description: "Set the quantity of a cart line. Quantity 0 removes it.",
	}, h.mcpUpdateQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_cart",
		Description: "Remove a line from the cart.",
	}, h.mcpRemoveFromCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Remove every line from the cart.",
	}, h.mcpClearCart)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return nil, h.cartOutput(model.OK(nil)), nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	if input.StoreID == "" {
		return nil, nil, fmt.Errorf("store_id is required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	product := cart.Product{
		ID:    model.ID(input.ProductID),
		Name:  input.Name,
		Price: model.Price(input.Price),
		Image: input.Image,
	}
	res := h.Cart.Add(ctx, product, model.ID(input.StoreID), input.Quantity, cart.Always(input.ReplaceCart))
	return h.mcpResult(res)
}

func (h *Handler) mcpUpdateQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateCartQuantityInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.ProductID == "" || input.StoreID == "" {
		return nil, nil, fmt.Errorf("product_id and store_id are required")
	}
	res := h.Cart.UpdateQuantity(ctx, model.ID(input.ProductID), model.ID(input.StoreID), input.Quantity)
	return h.mcpResult(res)
}

func (h *Handler) mcpRemoveFromCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveFromCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.ProductID == "" || input.StoreID == "" {
		return nil, nil, fmt.Errorf("product_id and store_id are required")
	}
	return h.mcpResult(h.Cart.Remove(ctx, model.ID(input.ProductID), model.ID(input.StoreID)))
}

func (h *Handler) mcpClearCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ClearCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpResult(h.Cart.Clear(ctx))
}

// mcpResult turns a failed mutation into a tool error. A declined
// cross-store add is not an error.
func (h *Handler) mcpResult(res *model.Result) (*mcp.CallToolResult, *CartOutput, error) {
	if !res.Success && !res.Cancelled {
		return nil, nil, mcpError(res)
	}
	return nil, h.cartOutput(res), nil
}

// mcpError converts a failed result into an MCP-friendly error.
func mcpError(res *model.Result) error {
	kind := string(res.Kind)
	if kind == "" {
		kind = string(model.FailureUpstream)
	}
	msg := res.Message
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Errorf("%s: %s", kind, msg)
}

func (h *Handler) cartOutput(res *model.Result) *CartOutput {
	view := h.Cart.View()
	out := &CartOutput{
		Success:   res.Success,
		Cancelled: res.Cancelled,
		Message:   res.Message,
		Items:     make([]CartLine, len(view.Items)),
		Count:     view.Count,
		Total:     view.Total,
	}
	for i, it := range view.Items {
		out.Items[i] = CartLine{
			ProductID: it.Product.ID.String(),
			StoreID:   it.StoreID.String(),
			Name:      it.Product.Name,
			Price:     float64(it.Product.Price),
			Image:     it.Product.Image,
			Quantity:  it.Quantity,
		}
	}
	return out
}
