package handlers

import (
	"net/http"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

// RegionsResponse is the destination tree listing.
type RegionsResponse struct {
	Regions []driver.Region `json:"regions"`
}

// PackagesResponse is a package catalog listing.
type PackagesResponse struct {
	Packages []driver.Package `json:"packages"`
}

// ListRegions handles GET /api/v1/catalog/regions.
func (a *API) ListRegions(w http.ResponseWriter, r *http.Request) {
	p := a.provider(r)

	var regions []driver.Region
	err := callProvider(p, "regions", func() error {
		var callErr error
		regions, callErr = p.Regions(r.Context())
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, RegionsResponse{Regions: regions})
}

// ListPackages handles GET /api/v1/catalog/packages. The region and package
// query parameters narrow the listing; both are optional.
func (a *API) ListPackages(w http.ResponseWriter, r *http.Request) {
	p := a.provider(r)
	filter := driver.PackageFilter{
		RegionCode:  r.URL.Query().Get("region"),
		PackageCode: r.URL.Query().Get("package"),
	}

	var packages []driver.Package
	err := callProvider(p, "packages", func() error {
		var callErr error
		packages, callErr = p.Packages(r.Context(), filter)
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PackagesResponse{Packages: packages})
}
