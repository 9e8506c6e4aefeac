package feasibility

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// BuildReportMarkdown renders a result as a GFM markdown report: massing,
// unit mix, revenue, cost breakdown, profitability, sensitivity, and the
// payment plan.
func BuildReportMarkdown(in Input, res Result) string {
	var b strings.Builder

	title := in.Name
	if title == "" {
		title = in.ID
	}
	fmt.Fprintf(&b, "# Feasibility Report: %s\n\n", title)
	fmt.Fprintf(&b, "Strategy: **%s** | Plot: %s sqft | Ratio: %.2f\n\n",
		res.Strategy, formatMoney(in.AreaSqft), in.Ratio)
	if in.Zone != "" {
		fmt.Fprintf(&b, "Zone: %s\n\n", in.Zone)
	}

	b.WriteString("## Massing\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| GFA | %s sqft |\n", formatMoney(res.GFA))
	fmt.Fprintf(&b, "| BUA | %s sqft |\n", formatMoney(res.BUA))
	fmt.Fprintf(&b, "| Sellable area | %s sqft |\n", formatMoney(res.SellableArea))
	fmt.Fprintf(&b, "| Residential floors | %d |\n\n", res.ResidentialFloors)

	b.WriteString("## Unit Mix & Revenue\n\n")
	b.WriteString("| Type | Units | Price | Revenue |\n|---|---|---|---|\n")
	rows := []struct {
		label string
		key   string
		count int
	}{
		{"Studio", "studio", res.Units.Studio},
		{"1BR", "1br", res.Units.BR1},
		{"2BR", "2br", res.Units.BR2},
		{"3BR", "3br", res.Units.BR3},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n",
			r.label, r.count, formatMoney(res.Prices[r.key]), formatMoney(res.RevBreak[r.key]))
	}
	fmt.Fprintf(&b, "| **Total** | **%d** | | **%s** |\n\n", res.Units.Total, formatMoney(res.GrossSales))
	fmt.Fprintf(&b, "Annual rent: %s | Gross yield: %.1f%%\n\n", formatMoney(res.AnnualRent), res.GrossYield*100)

	b.WriteString("## Cost Breakdown\n\n")
	b.WriteString("| Line | Amount |\n|---|---|\n")
	fmt.Fprintf(&b, "| Land | %s |\n", formatMoney(res.LandCost))
	fmt.Fprintf(&b, "| Construction | %s |\n", formatMoney(res.ConstructionCost))
	fmt.Fprintf(&b, "| Authority fees | %s |\n", formatMoney(res.AuthorityFees))
	fmt.Fprintf(&b, "| Consultant fees | %s |\n", formatMoney(res.ConsultantFees))
	fmt.Fprintf(&b, "| Marketing | %s |\n", formatMoney(res.Marketing))
	fmt.Fprintf(&b, "| Contingency | %s |\n", formatMoney(res.Contingency))
	fmt.Fprintf(&b, "| Financing | %s |\n", formatMoney(res.Financing))
	fmt.Fprintf(&b, "| **Total** | **%s** |\n\n", formatMoney(res.TotalCost))

	b.WriteString("## Profitability\n\n")
	fmt.Fprintf(&b, "- Gross profit: %s\n", formatMoney(res.GrossProfit))
	fmt.Fprintf(&b, "- Gross margin: %.1f%%\n", res.GrossMargin*100)
	fmt.Fprintf(&b, "- ROI: %.1f%%\n", res.ROI*100)
	fmt.Fprintf(&b, "- Break-even PSF: %s\n", formatMoney(res.BreakEvenPsf))
	fmt.Fprintf(&b, "- Average PSF: %s\n\n", formatMoney(res.AvgPsf))

	b.WriteString("## Price Sensitivity\n\n")
	b.WriteString("| Shock | Revenue | Profit | Margin | ROI |\n|---|---|---|---|---|\n")
	for _, row := range res.Sens {
		fmt.Fprintf(&b, "| %+.0f%% | %s | %s | %.1f%% | %.1f%% |\n",
			row.Delta*100, formatMoney(row.Revenue), formatMoney(row.Profit), row.Margin*100, row.ROI*100)
	}
	b.WriteString("\n## Payment Plan\n\n")
	fmt.Fprintf(&b, "- Booking (%.0f%%): %s\n", res.PayPlan.BookingPct, formatMoney(res.PayPlan.Booking))
	fmt.Fprintf(&b, "- Construction (%.0f%%): %s\n", res.PayPlan.ConstructionPct, formatMoney(res.PayPlan.Construction))
	fmt.Fprintf(&b, "- Handover (%.0f%%): %s\n", res.PayPlan.HandoverPct, formatMoney(res.PayPlan.Handover))

	return b.String()
}

// RenderReportHTML converts the markdown report into a standalone HTML
// document.
func RenderReportHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Feasibility Report</title>" +
		"<style>" +
		"body{font-family:system-ui,sans-serif;max-width:880px;margin:2rem auto;padding:0 1rem;color:#1c1917;}" +
		"table{width:100%;border-collapse:collapse;font-size:0.9rem;margin:0.5rem 0 1rem;}" +
		"th,td{border:1px solid #a8a29e;padding:0.35rem 0.5rem;text-align:left;}" +
		"thead th{background:#f1f5f9;}" +
		"h1{border-bottom:2px solid #1c1917;padding-bottom:0.3rem;}" +
		"</style></head><body>" + content.String() + "</body></html>", nil
}

// formatMoney renders a value with thousands separators and no decimals;
// fractional parts below a whole unit are not meaningful in the report.
func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	var out strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	out.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		out.WriteString(",")
		out.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + out.String()
	}
	return out.String()
}
