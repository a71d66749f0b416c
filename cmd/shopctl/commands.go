package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/app"
	"storefront/internal/cart"
	"storefront/internal/model"
)

type cli struct {
	app     *app.App
	in      *bufio.Reader
	out     io.Writer
	p       printer
	jsonOut bool
	noColor bool
}

func (c *cli) prompt() prompt {
	return prompt{in: c.in, out: c.out}
}

// flush prints pending notifications.
func (c *cli) flush() []string {
	if c.app == nil {
		return nil
	}
	var printed []string
	for _, n := range c.app.Notifications.Drain() {
		c.p.notification(n)
		printed = append(printed, n.Message)
	}
	return printed
}

// finish prints pending notifications and turns a failed result into
// errReported. A declined cart replacement is not a failure.
func (c *cli) finish(res *model.Result) error {
	printed := c.flush()
	if res.Success || res.Cancelled {
		return nil
	}
	if len(printed) == 0 {
		msg := res.Message
		if msg == "" {
			msg = "Request failed"
		}
		c.p.failure("%s", msg)
	}
	return errReported
}

// === Session ===

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pr := c.prompt()
			if email == "" {
				email = pr.ask("Email")
			}
			if password == "" {
				password = pr.ask("Password")
			}
			if err := c.finish(c.app.Session.Login(cmd.Context(), email, password)); err != nil {
				return err
			}
			return c.printSession(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.finish(c.app.Session.Logout(cmd.Context()))
		},
	}
}

func (c *cli) guestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Continue without an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.finish(c.app.Session.ContinueAsGuest(cmd.Context())); err != nil {
				return err
			}
			return c.printSession(cmd.Context())
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printSession(cmd.Context())
		},
	}
}

type sessionView struct {
	Profile       interface{} `json:"user"`
	Guest         bool        `json:"isGuest"`
	Authenticated bool        `json:"authenticated"`
	ExpiresAt     *time.Time  `json:"tokenExpiresAt,omitempty"`
}

func (c *cli) printSession(ctx context.Context) error {
	s := c.app.Session
	profile, ok := s.Current()
	exp, hasExp := s.TokenExpiry(ctx)

	if c.jsonOut {
		view := sessionView{Guest: s.IsGuest(), Authenticated: s.IsAuthenticated(ctx)}
		if ok {
			view.Profile = profile
		}
		if hasExp {
			view.ExpiresAt = &exp
		}
		c.p.json(view)
		return nil
	}

	switch {
	case !ok:
		c.p.info("Not signed in")
	case profile.IsGuest:
		c.p.info("Browsing as guest")
	default:
		c.p.info("Signed in as %s <%s>", profile.DisplayName(), profile.Email)
		if hasExp {
			c.p.info("Session expires %s", exp.Local().Format(time.RFC1123))
		}
	}
	return nil
}

// === Cart ===

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}
	cmd.AddCommand(
		c.cartShowCmd(),
		c.cartAddCmd(),
		c.cartUpdateCmd(),
		c.cartRemoveCmd(),
		c.cartClearCmd(),
		c.cartSyncCmd(),
		c.cartCheckoutCmd(),
	)
	return cmd
}

func (c *cli) printCart() {
	if c.jsonOut {
		c.p.json(c.app.Cart.View())
		return
	}
	c.p.cart(c.app.Cart.View())
}

// cartResult finishes a mutation and shows the cart it left behind.
func (c *cli) cartResult(res *model.Result) error {
	if err := c.finish(res); err != nil {
		return err
	}
	c.printCart()
	return nil
}

func (c *cli) cartShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List cart lines by store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printCart()
			return nil
		},
	}
}

func (c *cli) cartAddCmd() *cobra.Command {
	var (
		storeID string
		name    string
		image   string
		price   float64
		qty     int
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product; quantities merge with an existing line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := cart.Product{
				ID:    model.ID(args[0]),
				Name:  name,
				Price: model.Price(price),
				Image: image,
			}
			var confirm cart.Confirmer = c.prompt()
			if replace {
				confirm = cart.Always(true)
			}
			return c.cartResult(c.app.Cart.Add(cmd.Context(), product, model.ID(storeID), qty, confirm))
		},
	}
	cmd.Flags().StringVar(&storeID, "store", "", "Store selling the product")
	cmd.Flags().StringVar(&name, "name", "", "Product name")
	cmd.Flags().StringVar(&image, "image", "", "Product image URL")
	cmd.Flags().Float64Var(&price, "price", 0, "Unit price")
	cmd.Flags().IntVar(&qty, "qty", 1, "Quantity to add")
	cmd.Flags().BoolVarP(&replace, "yes", "y", false, "Empty the cart without asking if it holds another store's items")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func (c *cli) cartUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <store-id> <product-id> <qty>",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
			return c.cartResult(c.app.Cart.UpdateQuantity(cmd.Context(), model.ID(args[1]), model.ID(args[0]), qty))
		},
	}
}

func (c *cli) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <store-id> <product-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cartResult(c.app.Cart.Remove(cmd.Context(), model.ID(args[1]), model.ID(args[0])))
		},
	}
}

func (c *cli) cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cartResult(c.app.Cart.Clear(cmd.Context()))
		},
	}
}

func (c *cli) cartSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the local cart with the server's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cartResult(c.app.Cart.Sync(cmd.Context()))
		},
	}
}

func (c *cli) cartCheckoutCmd() *cobra.Command {
	var d cart.CheckoutDetails
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cartResult(c.app.Cart.Checkout(cmd.Context(), c.app.Session, d))
		},
	}
	cmd.Flags().StringVar(&d.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&d.Email, "email", "", "Contact email")
	cmd.Flags().StringVar(&d.PhoneNumber, "phone", "", "Phone number")
	cmd.Flags().StringVar(&d.CurrentLocation, "location", "", "Delivery location")
	cmd.Flags().StringVar(&d.PreferredDeliveryTime, "delivery-time", "", "Preferred delivery time")
	return cmd
}

// === Wishlist ===

func (c *cli) wishlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show and change saved products",
	}

	var refresh bool
	show := &cobra.Command{
		Use:   "show",
		Short: "List saved product ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh {
				if err := c.finish(c.app.Wishlist.Load(cmd.Context())); err != nil {
					return err
				}
			}
			c.printWishlist()
			return nil
		},
	}
	show.Flags().BoolVar(&refresh, "refresh", false, "Fetch the server's list first")

	toggle := &cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Save a product, or unsave it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.finish(c.app.Wishlist.Toggle(cmd.Context(), model.ID(args[0]))); err != nil {
				return err
			}
			c.printWishlist()
			return nil
		},
	}

	cmd.AddCommand(show, toggle)
	return cmd
}

func (c *cli) printWishlist() {
	ids := c.app.Wishlist.Items()
	if c.jsonOut {
		if ids == nil {
			ids = []model.ID{}
		}
		c.p.json(map[string]interface{}{"items": ids})
		return
	}
	if len(ids) == 0 {
		c.p.info("Your wishlist is empty")
		return
	}
	for _, id := range ids {
		fmt.Fprintf(c.out, "  ♥ %s\n", id)
	}
}

// === Stores ===

func (c *cli) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Browse categories, stores and products",
	}
	cmd.AddCommand(
		c.listCmd("list", "List every store", func(ctx context.Context) *model.Result {
			return c.app.StoreAPI.ListStores(ctx)
		}),
		c.listCmd("categories", "List store categories", func(ctx context.Context) *model.Result {
			return c.app.StoreAPI.ListCategories(ctx)
		}),
		c.fetchCmd("category <slug>", "Show a category", func(ctx context.Context, slug string) *model.Result {
			return c.app.StoreAPI.GetCategory(ctx, slug)
		}),
		c.fetchCmd("by-category <category-id|slug>", "List the stores in a category", func(ctx context.Context, category string) *model.Result {
			return c.app.StoreAPI.StoresByCategory(ctx, category)
		}),
		c.fetchCmd("product <product-id>", "Show a product", func(ctx context.Context, id string) *model.Result {
			return c.app.StoreAPI.GetProduct(ctx, id)
		}),
		c.fetchCmd("show <store-id>", "Show a store", func(ctx context.Context, id string) *model.Result {
			return c.app.StoreAPI.GetStore(ctx, id)
		}),
		c.fetchCmd("products <store-id>", "List a store's products", func(ctx context.Context, id string) *model.Result {
			return c.app.StoreAPI.GetStoreProducts(ctx, id)
		}),
		c.fetchCmd("reviews <store-id>", "List a store's reviews", func(ctx context.Context, id string) *model.Result {
			return c.app.StoreAPI.GetStoreReviews(ctx, id)
		}),
		&cobra.Command{
			Use:   "home",
			Short: "Show the home page layout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.printData(c.app.StoreAPI.GetHomePage(cmd.Context()))
			},
		},
	)
	return cmd
}

func (c *cli) listCmd(use, short string, list func(ctx context.Context) *model.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printData(list(cmd.Context()))
		},
	}
}

func (c *cli) fetchCmd(use, short string, fetch func(ctx context.Context, id string) *model.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printData(fetch(cmd.Context(), args[0]))
		},
	}
}

// printData prints a successful payload as JSON.
func (c *cli) printData(res *model.Result) error {
	if err := c.finish(res); err != nil {
		return err
	}
	data := res.Data
	if len(data) == 0 {
		data = json.RawMessage(`null`)
	}
	c.p.json(data)
	return nil
}
