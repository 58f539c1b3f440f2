package dataprocessing

import (
	"strconv"
	"strings"

	"entrytally/pkg/contracts/domain"
)

// regionAliases lists the accepted spellings per canonical region. Aliases
// are compared after normalization (uppercase, hyphens and spaces stripped),
// so "Region IV-B", "region 4b" and "IVB" all land on Region IV: sub-regions
// map to their parent, never to a bucket of their own.
var regionAliases = map[domain.Region][]string{
	domain.RegionNCR: {"NCR"},
	domain.RegionI:   {"REGION 1", "REGION I", "I", "1"},
	domain.RegionII:  {"REGION 2", "REGION II", "II", "2"},
	domain.RegionIII: {"REGION 3", "REGION III", "III", "3"},
	domain.RegionIV: {
		"REGION 4", "REGION IV", "IV", "4",
		"REGION 4A", "REGION IV-A", "IV-A", "4A",
		"REGION 4B", "REGION IV-B", "IV-B", "4B",
		"REGION IV B", "REGION 4 B",
	},
	domain.RegionMIMAROPA: {
		"MIMAROPA", "REGION MIMAROPA", "REGION-MIMAROPA",
		"M I M A R O P A", "MIMAROPA REGION",
	},
	domain.RegionV:     {"REGION 5", "REGION V", "V", "5"},
	domain.RegionVI:    {"REGION 6", "REGION VI", "VI", "6"},
	domain.RegionVII:   {"REGION 7", "REGION VII", "VII", "7"},
	domain.RegionVIII:  {"REGION 8", "REGION VIII", "VIII", "8"},
	domain.RegionIX:    {"REGION 9", "REGION IX", "IX", "9"},
	domain.RegionX:     {"REGION 10", "REGION X", "X", "10"},
	domain.RegionXI:    {"REGION 11", "REGION XI", "XI", "11"},
	domain.RegionXII:   {"REGION 12", "REGION XII", "XII", "12"},
	domain.RegionXIII:  {"REGION 13", "REGION XIII", "XIII", "13"},
	domain.RegionCAR:   {"CAR"},
	domain.RegionBARMM: {"BARMM"},
}

// aliasIndex maps normalized alias keys to their canonical region. Built once
// at package init from regionAliases.
var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]domain.Region {
	index := make(map[string]domain.Region)
	for region, aliases := range regionAliases {
		for _, alias := range aliases {
			index[regionKey(alias)] = region
		}
	}
	return index
}

// Residual heuristics applied after the alias table: sub-region spellings of
// Region IV, then MIMAROPA spelling variants. Keys are pre-normalized.
var (
	regionIVResiduals = map[string]bool{
		"4B": true, "IVB": true,
	}
	mimaropaResiduals = map[string]bool{
		"MIMAROPA": true, "REGIONMIMAROPA": true, "REGION_MIMAROPA": true,
		"MIMAROPAREGION": true, "MIMAROPAA": true,
	}
)

// NormalizeRegion maps a raw cell value onto the canonical region set.
// Unlike NormalizeDate it always produces a value: absence of a match is
// itself meaningful and lands in the Unidentified bucket, which participates
// in aggregation like any other region.
func NormalizeRegion(c Cell) domain.Region {
	var val string
	switch c.Kind {
	case CellText:
		val = c.Text
	case CellNumber:
		// Integral values render without a fraction so "5.0" matches "5".
		if c.Number == float64(int64(c.Number)) {
			val = strconv.FormatInt(int64(c.Number), 10)
		} else {
			val = strconv.FormatFloat(c.Number, 'f', -1, 64)
		}
	default:
		return domain.RegionUnidentified
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return domain.RegionUnidentified
	}

	key := regionKey(val)
	if region, ok := aliasIndex[key]; ok {
		return region
	}
	if regionIVResiduals[key] {
		return domain.RegionIV
	}
	if mimaropaResiduals[key] {
		return domain.RegionMIMAROPA
	}
	return domain.RegionUnidentified
}

// regionKey normalizes a label for alias comparison: trimmed, uppercased,
// hyphens and spaces removed.
func regionKey(val string) string {
	key := strings.ToUpper(strings.TrimSpace(val))
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	return key
}
