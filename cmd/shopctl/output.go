package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/notify"
)

// ANSI color codes
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, color bool) printer {
	return printer{w: w, color: color}
}

func (p printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p printer) success(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.paint(ansiGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func (p printer) failure(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.paint(ansiRed, "✗ "+fmt.Sprintf(format, args...)))
}

func (p printer) warning(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.paint(ansiYellow, "⚠ "+fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.paint(ansiGray, "→ "+fmt.Sprintf(format, args...)))
}

// notification prints one pending notification by level.
func (p printer) notification(n notify.Notification) {
	switch n.Level {
	case notify.LevelSuccess:
		p.success("%s", n.Message)
	case notify.LevelError:
		p.failure("%s", n.Message)
	default:
		p.info("%s", n.Message)
	}
}

// json prints v indented. Raw JSON is re-indented as is.
func (p printer) json(v interface{}) {
	var data []byte
	switch raw := v.(type) {
	case json.RawMessage:
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			fmt.Fprintln(p.w, string(raw))
			return
		}
		data = pretty.Bytes()
	default:
		var err error
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			p.failure("encoding output: %v", err)
			return
		}
	}
	fmt.Fprintln(p.w, string(data))
}

// cart prints lines grouped by store, then the count and total.
func (p printer) cart(view cart.Snapshot) {
	if len(view.Items) == 0 {
		p.info("Your cart is empty")
		return
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, group := range view.Stores {
		fmt.Fprintln(tw, p.paint(ansiBold, "Store "+group.StoreID.String()))
		for _, it := range group.Items {
			line := model.FromCents(it.Product.Price.Cents() * int64(it.Quantity))
			fmt.Fprintf(tw, "  %s\t%s\t×%d\t%.2f\n", it.Product.ID, it.Product.Name, it.Quantity, line)
		}
	}
	tw.Flush()
	fmt.Fprintf(p.w, "%s %d items, total %s\n",
		p.paint(ansiCyan, "Σ"), view.Count, p.paint(ansiBold, fmt.Sprintf("%.2f", view.Total)))
}
