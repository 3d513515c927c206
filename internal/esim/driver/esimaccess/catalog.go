package esimaccess

import (
	"context"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

const (
	endpointRegions  = "/api/v1/open/location/list"
	endpointPackages = "/api/v1/open/package/list"
)

type wireRegion struct {
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	SubLocations []wireRegion `json:"subLocationList"`
}

func (w wireRegion) toRegion() driver.Region {
	r := driver.Region{Code: w.Code, Name: w.Name, Type: w.Type}
	for _, sub := range w.SubLocations {
		r.SubLocations = append(r.SubLocations, sub.toRegion())
	}
	return r
}

// Regions returns the destination tree, including sub-locations for
// multi-country bundles.
func (c *Client) Regions(ctx context.Context) ([]driver.Region, error) {
	var obj struct {
		LocationList []wireRegion `json:"locationList"`
	}
	if err := c.call(ctx, endpointRegions, struct{}{}, &obj); err != nil {
		return nil, err
	}

	regions := make([]driver.Region, 0, len(obj.LocationList))
	for _, loc := range obj.LocationList {
		regions = append(regions, loc.toRegion())
	}
	return regions, nil
}

// Packages lists purchasable packages, optionally filtered by region or code.
func (c *Client) Packages(ctx context.Context, filter driver.PackageFilter) ([]driver.Package, error) {
	req := struct {
		LocationCode string `json:"locationCode,omitempty"`
		PackageCode  string `json:"packageCode,omitempty"`
	}{
		LocationCode: filter.RegionCode,
		PackageCode:  filter.PackageCode,
	}

	var obj struct {
		PackageList []wirePackage `json:"packageList"`
	}
	if err := c.call(ctx, endpointPackages, req, &obj); err != nil {
		return nil, err
	}

	packages := make([]driver.Package, 0, len(obj.PackageList))
	for _, p := range obj.PackageList {
		packages = append(packages, p.toPackage())
	}
	return packages, nil
}
