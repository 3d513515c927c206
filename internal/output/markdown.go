package output

import (
	"fmt"
	"strings"

	"github.com/roamsim/roamsim/internal/esim"
	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/store"
)

// PackagesMarkdown renders the package catalog as a markdown table.
func PackagesMarkdown(packages []driver.Package) string {
	var sb strings.Builder
	sb.WriteString("| Code | Name | Data | Validity | Price | Top-Up |\n")
	sb.WriteString("|------|------|------|----------|-------|--------|\n")

	for _, p := range packages {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %dd | %s | %s |\n",
			escapeMarkdownCell(p.Code),
			escapeMarkdownCell(p.Name),
			FormatVolume(p.VolumeBytes),
			p.ValidityDays,
			priceLabel(p.Price, p.Currency),
			topUpLabel(p),
		))
	}

	return sb.String()
}

// RegionsMarkdown renders the destination tree as a markdown table.
func RegionsMarkdown(regions []driver.Region) string {
	var sb strings.Builder
	sb.WriteString("| Code | Name | Type | Countries |\n")
	sb.WriteString("|------|------|------|-----------|\n")

	for _, r := range regions {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(r.Code),
			escapeMarkdownCell(r.Name),
			escapeMarkdownCell(r.Type),
			escapeMarkdownCell(subLocationLabel(r)),
		))
	}

	return sb.String()
}

// OrdersMarkdown renders the order history as a markdown table.
func OrdersMarkdown(orders []*store.Order) string {
	var sb strings.Builder
	sb.WriteString("| Order | Package | Status | ICCID | Mode | Created |\n")
	sb.WriteString("|-------|---------|--------|-------|------|----------|\n")

	for _, o := range orders {
		if o == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			escapeMarkdownCell(o.OrderNo),
			escapeMarkdownCell(o.PackageCode),
			escapeMarkdownCell(o.Status),
			escapeMarkdownCell(o.ICCID),
			modeLabel(o.TestMode),
			o.CreatedAt.Format("2006-01-02 15:04"),
		))
	}

	return sb.String()
}

// ProfilesMarkdown renders provisioned eSIMs as a markdown table.
func ProfilesMarkdown(profiles []driver.Profile) string {
	var sb strings.Builder
	sb.WriteString("| TranNo | ICCID | Status | Data | Expires | LPA |\n")
	sb.WriteString("|--------|-------|--------|------|---------|-----|\n")

	for _, p := range profiles {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			escapeMarkdownCell(p.TranNo),
			escapeMarkdownCell(p.ICCID),
			escapeMarkdownCell(p.Status),
			volumePair(p.UsedBytes, p.VolumeBytes),
			expiryLabel(p.ExpiredAt),
			escapeMarkdownCell(esim.ActivationString(p)),
		))
	}

	return sb.String()
}

// UsageMarkdown renders batch usage results as a markdown table.
func UsageMarkdown(records []driver.UsageRecord) string {
	var sb strings.Builder
	sb.WriteString("| TranNo | Used | Total | Updated |\n")
	sb.WriteString("|--------|------|-------|----------|\n")

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(r.TranNo),
			FormatVolume(r.UsedBytes),
			FormatVolume(r.TotalBytes),
			expiryLabel(r.LastUpdated),
		))
	}

	return sb.String()
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
