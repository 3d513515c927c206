package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/roamsim/roamsim/internal/esim"
	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/store"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

// PackagesTable renders the package catalog as an ASCII table.
func PackagesTable(packages []driver.Package) string {
	t := newTable()
	t.AppendHeader(table.Row{"Code", "Name", "Data", "Validity", "Price", "Top-Up"})

	for _, p := range packages {
		t.AppendRow(table.Row{
			p.Code,
			p.Name,
			FormatVolume(p.VolumeBytes),
			fmt.Sprintf("%dd", p.ValidityDays),
			priceLabel(p.Price, p.Currency),
			topUpLabel(p),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d packages", len(packages))})
	return t.Render()
}

// RegionsTable renders the destination tree, one row per location with
// member countries inlined for multi-country bundles.
func RegionsTable(regions []driver.Region) string {
	t := newTable()
	t.AppendHeader(table.Row{"Code", "Name", "Type", "Countries"})

	for _, r := range regions {
		t.AppendRow(table.Row{r.Code, r.Name, r.Type, subLocationLabel(r)})
	}

	return t.Render()
}

// OrdersTable renders the local order history.
func OrdersTable(orders []*store.Order) string {
	t := newTable()
	t.AppendHeader(table.Row{"Order", "Package", "Status", "ICCID", "Mode", "Created"})

	for _, o := range orders {
		if o == nil {
			continue
		}
		t.AppendRow(table.Row{
			o.OrderNo,
			o.PackageCode,
			o.Status,
			o.ICCID,
			modeLabel(o.TestMode),
			o.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	return t.Render()
}

// ProfilesTable renders provisioned eSIMs with their activation strings.
func ProfilesTable(profiles []driver.Profile) string {
	t := newTable()
	t.AppendHeader(table.Row{"TranNo", "ICCID", "Status", "Data", "Expires", "LPA"})

	for _, p := range profiles {
		t.AppendRow(table.Row{
			p.TranNo,
			p.ICCID,
			p.Status,
			volumePair(p.UsedBytes, p.VolumeBytes),
			expiryLabel(p.ExpiredAt),
			esim.ActivationString(p),
		})
	}

	return t.Render()
}

// UsageTable renders batch usage results.
func UsageTable(records []driver.UsageRecord) string {
	t := newTable()
	t.AppendHeader(table.Row{"TranNo", "Used", "Total", "Remaining", "Updated"})

	for _, r := range records {
		remaining := r.TotalBytes - r.UsedBytes
		if remaining < 0 {
			remaining = 0
		}
		t.AppendRow(table.Row{
			r.TranNo,
			FormatVolume(r.UsedBytes),
			FormatVolume(r.TotalBytes),
			FormatVolume(remaining),
			expiryLabel(r.LastUpdated),
		})
	}

	return t.Render()
}

func priceLabel(price float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}

func topUpLabel(p driver.Package) string {
	if p.TopUpEligible() {
		return "yes"
	}
	return "new eSIM only"
}

func modeLabel(testMode bool) string {
	if testMode {
		return "sandbox"
	}
	return "live"
}

func volumePair(used, total int64) string {
	if total == 0 {
		return "-"
	}
	return FormatVolume(used) + " / " + FormatVolume(total)
}

func expiryLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

func subLocationLabel(r driver.Region) string {
	if len(r.SubLocations) == 0 {
		return ""
	}
	codes := make([]string, 0, len(r.SubLocations))
	for _, sub := range r.SubLocations {
		codes = append(codes, sub.Code)
	}
	return strings.Join(codes, ", ")
}
