package output

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// RenderJSON marshals any value with standard indentation.
func RenderJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatVolume renders a byte count the way travelers read data plans.
func FormatVolume(bytes int64) string {
	const (
		kb = int64(1) << 10
		mb = int64(1) << 20
		gb = int64(1) << 30
	)
	switch {
	case bytes >= gb:
		return trimZero(fmt.Sprintf("%.1f", float64(bytes)/float64(gb))) + " GB"
	case bytes >= mb:
		return trimZero(fmt.Sprintf("%.1f", float64(bytes)/float64(mb))) + " MB"
	case bytes >= kb:
		return trimZero(fmt.Sprintf("%.1f", float64(bytes)/float64(kb))) + " KB"
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func trimZero(value string) string {
	return strings.TrimSuffix(value, ".0")
}
