package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/fatih/color"
)

func (a *App) header() string {
	return color.CyanString("freshcart client (type 'help' for commands)")
}

func (a *App) say(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) ok(format string, args ...any) {
	fmt.Fprintln(a.out, color.GreenString(format, args...))
}

// describeError turns client errors into one-line user messages.
func describeError(err error) string {
	var u usageError
	switch {
	case errors.As(err, &u):
		return "Usage: " + string(u)
	case errors.Is(err, common.ErrSessionExpired):
		return color.YellowString("Your session has expired, please log in again.")
	case errors.Is(err, common.ErrAuthRequired):
		return color.YellowString("Please log in first.")
	case errors.Is(err, common.ErrUnavailable):
		return color.RedString("Server unavailable: %v", err)
	case errors.Is(err, common.ErrNotFound):
		return color.RedString("Not found.")
	default:
		return color.RedString("Error: %v", err)
	}
}

func formatLineItem(it models.LineItem) string {
	return fmt.Sprintf("%-12s %-24s %3d x %10s = %10s  [%s]",
		it.ID, it.Name, it.Quantity, it.Price.StringFixed(2), it.Subtotal().StringFixed(2), it.Category)
}

func formatProduct(p models.Product, liked bool) string {
	heart := " "
	if liked {
		heart = color.RedString("♥")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-12s %-24s %10s  [%s]", heart, p.Key(), p.Name, p.Price.StringFixed(2), p.CategoryLabel())
	if p.Unit != "" {
		fmt.Fprintf(&sb, " per %s", p.Unit)
	}
	return sb.String()
}
