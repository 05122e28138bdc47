package cliui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/partchat/pkg/parts"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	compatibleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	notCompatibleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

// ProductCard renders a product as a bordered card.
func ProductCard(p parts.Product) string {
	header := KeyStyle.Render(p.PartNumber)
	if p.InStock {
		header += "  " + SuccessMark + " In Stock"
	}

	lines := []string{
		header,
		NameStyle.Render(p.Name),
	}
	if p.Description != "" {
		lines = append(lines, ValueStyle.Render(p.Description))
	}

	var meta []string
	if p.ApplianceType != "" {
		meta = append(meta, p.ApplianceType)
	}
	if p.Category != "" {
		meta = append(meta, p.Category)
	}
	if len(meta) > 0 {
		lines = append(lines, DimStyle.Render(strings.Join(meta, " · ")))
	}

	lines = append(lines, PriceStyle.Render(FormatPrice(p.Price)))
	if p.ImageURL != "" {
		lines = append(lines, DimStyle.Render(p.ImageURL))
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

// FormatPrice formats a price in dollars with two decimals.
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		price = 0
	}
	return fmt.Sprintf("$%.2f", price)
}

// CompatibilityBadge renders a compatibility verdict. A nil verdict renders
// as the empty string.
func CompatibilityBadge(c *parts.Compatibility) string {
	if c == nil {
		return ""
	}

	verdict := compatibleStyle.Render(SuccessMark + " Compatible")
	if !c.Compatible {
		verdict = notCompatibleStyle.Render(FailMark + " Not Compatible")
	}

	lines := []string{
		verdict,
		fmt.Sprintf("%s %s  %s %s",
			KeyStyle.Render("Part:"), ValueStyle.Render(c.PartNumber),
			KeyStyle.Render("Model:"), ValueStyle.Render(c.ModelNumber),
		),
	}
	if c.Confidence > 0 {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("confidence %.0f%%", c.Confidence*100)))
	}
	if c.Explanation != "" {
		lines = append(lines, ValueStyle.Render(c.Explanation))
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}
