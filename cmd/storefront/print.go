package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/collection"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

const timeLayout = "2006-01-02 15:04"

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func footer[T any](w io.Writer, p collection.Page[T]) {
	fmt.Fprintf(w, "page %d of %d\n", p.Page, p.TotalPages)
}

func printProducts(w io.Writer, p collection.Page[product.Product]) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	tw := table(w, "ID", "NAME", "CATEGORY", "PRICE", "STOCK")
	for _, it := range p.Items {
		stock := strconv.Itoa(it.Stock)
		if it.Stock == 0 {
			stock = "out of stock"
		}
		row(tw, it.ID, it.Name, it.Category, it.Price.StringFixed(2), stock)
	}
	tw.Flush()
	footer(w, p)
}

func printProduct(w io.Writer, p *product.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row(tw, "ID", p.ID)
	row(tw, "Name", p.Name)
	row(tw, "Category", p.Category)
	row(tw, "Price", p.Price.StringFixed(2))
	row(tw, "Stock", p.Stock)
	if p.ImageURL != "" {
		row(tw, "Image", p.ImageURL)
	}
	row(tw, "Description", p.Description)
	tw.Flush()
}

func printCart(w io.Writer, rec *cart.Reconciler) {
	lines := rec.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	tw := table(w, "LINE", "PRODUCT", "PRICE", "QTY", "SUBTOTAL")
	for _, l := range lines {
		name := "#" + strconv.FormatInt(l.ProductID, 10)
		if l.Product != nil {
			name = l.Product.Name
		}
		row(tw, l.ID, name, l.UnitPrice().StringFixed(2), l.Quantity, l.Subtotal().StringFixed(2))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d items, subtotal %s\n", rec.ItemCount(), rec.Subtotal().StringFixed(2))
}

func printOrders(w io.Writer, p collection.Page[order.Order], withCustomer bool) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "No orders yet.")
		return
	}
	header := []string{"ID", "DATE", "ITEMS", "TOTAL", "STATUS"}
	if withCustomer {
		header = append(header, "CUSTOMER")
	}
	tw := table(w, header...)
	for _, o := range p.Items {
		cols := []any{o.ID, o.CreatedAt.Local().Format(timeLayout), o.ItemCount(), o.TotalAmount.StringFixed(2), o.Status}
		if withCustomer {
			who := "-"
			if o.User != nil {
				who = o.User.Email
			}
			cols = append(cols, who)
		}
		row(tw, cols...)
	}
	tw.Flush()
	footer(w, p)
}

func printOrder(w io.Writer, o *order.Order) {
	fmt.Fprintf(w, "Order #%d  %s  total %s\n", o.ID, o.Status, o.TotalAmount.StringFixed(2))
	tw := table(w, "PRODUCT", "PRICE", "QTY")
	for _, it := range o.Items {
		name := "#" + strconv.FormatInt(it.ProductID, 10)
		if it.Product != nil {
			name = it.Product.Name
		}
		row(tw, name, it.Price.StringFixed(2), it.Quantity)
	}
	tw.Flush()
}

func printUsers(w io.Writer, p collection.Page[user.User], admin *user.Admin) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	tw := table(w, "ID", "NAME", "EMAIL", "ROLE", "ORDERS", "")
	for _, u := range p.Items {
		mark := ""
		if !admin.Editable(u) {
			mark = "(you)"
		}
		row(tw, u.ID, u.Name, u.Email, u.Role, u.OrderCount, mark)
	}
	tw.Flush()
	footer(w, p)
}
