package esimaccess

import (
	"strings"
	"time"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

// wirePackage is the provider's package shape.
type wirePackage struct {
	PackageCode      string  `json:"packageCode"`
	Name             string  `json:"name"`
	Volume           int64   `json:"volume"`
	Duration         int     `json:"duration"`
	DurationUnit     string  `json:"durationUnit"`
	Price            float64 `json:"price"`
	CurrencyCode     string  `json:"currencyCode"`
	Location         string  `json:"location"`
	SupportTopUpType int     `json:"supportTopUpType"`
}

func (w wirePackage) toPackage() driver.Package {
	return driver.Package{
		Code:             w.PackageCode,
		Name:             w.Name,
		VolumeBytes:      w.Volume,
		ValidityDays:     w.Duration,
		Price:            w.Price,
		Currency:         w.CurrencyCode,
		Countries:        splitLocations(w.Location),
		SupportTopUpType: w.SupportTopUpType,
	}
}

// wireProfile is the provider's allocated-profile shape.
type wireProfile struct {
	EsimTranNo     string `json:"esimTranNo"`
	ICCID          string `json:"iccid"`
	SMDPAddress    string `json:"smDpAddress"`
	ActivationCode string `json:"activationCode"`
	QRCodeURL      string `json:"qrCodeUrl"`
	EsimStatus     string `json:"esimStatus"`
	CreateTime     string `json:"createTime"`
	ExpiredTime    string `json:"expiredTime"`
	TotalVolume    int64  `json:"totalVolume"`
	OrderUsage     int64  `json:"orderUsage"`
}

func (w wireProfile) toProfile() driver.Profile {
	return driver.Profile{
		TranNo:         w.EsimTranNo,
		ICCID:          w.ICCID,
		SMDPAddress:    w.SMDPAddress,
		ActivationCode: w.ActivationCode,
		QRCodeURL:      w.QRCodeURL,
		Status:         w.EsimStatus,
		CreatedAt:      parseWireTime(w.CreateTime),
		ExpiredAt:      parseWireTime(w.ExpiredTime),
		VolumeBytes:    w.TotalVolume,
		UsedBytes:      w.OrderUsage,
	}
}

var wireTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseWireTime parses the provider's timestamp formats. Unparseable or empty
// values yield the zero time rather than an error; timestamps are advisory.
func parseWireTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range wireTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// splitLocations splits the provider's comma-separated country list.
func splitLocations(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
