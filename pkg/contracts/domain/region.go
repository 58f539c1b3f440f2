package domain

// Region is one of the fixed canonical administrative regions, or the
// catch-all Unidentified bucket for labels that match no known alias.
type Region string

const (
	RegionNCR          Region = "NCR"
	RegionI            Region = "Region I"
	RegionII           Region = "Region II"
	RegionIII          Region = "Region III"
	RegionIV           Region = "Region IV"
	RegionMIMAROPA     Region = "MIMAROPA"
	RegionV            Region = "Region V"
	RegionVI           Region = "Region VI"
	RegionVII          Region = "Region VII"
	RegionVIII         Region = "Region VIII"
	RegionIX           Region = "Region IX"
	RegionX            Region = "Region X"
	RegionXI           Region = "Region XI"
	RegionXII          Region = "Region XII"
	RegionCAR          Region = "CAR"
	RegionXIII         Region = "Region XIII"
	RegionBARMM        Region = "BARMM"
	RegionUnidentified Region = "Unidentified"
)

// regionOrder is the canonical row order of the summary table. Every writer
// of the table must use this ordering.
var regionOrder = []Region{
	RegionNCR,
	RegionI,
	RegionII,
	RegionIII,
	RegionIV,
	RegionMIMAROPA,
	RegionV,
	RegionVI,
	RegionVII,
	RegionVIII,
	RegionIX,
	RegionX,
	RegionXI,
	RegionXII,
	RegionCAR,
	RegionXIII,
	RegionBARMM,
	RegionUnidentified,
}

// AllRegions returns the canonical regions in summary-table row order.
// The returned slice is a copy; callers may reorder it freely.
func AllRegions() []Region {
	out := make([]Region, len(regionOrder))
	copy(out, regionOrder)
	return out
}

// IsCanonical reports whether r is one of the fixed canonical regions
// (including Unidentified).
func (r Region) IsCanonical() bool {
	for _, known := range regionOrder {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the display label of the region.
func (r Region) String() string {
	return string(r)
}
