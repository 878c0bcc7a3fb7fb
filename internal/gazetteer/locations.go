// Package gazetteer resolves GNIS gazetteer archives from the USGS staged
// products bucket into local GeoPackage files.
package gazetteer

import (
	"fmt"
	"sort"
	"strings"
)

// National selects the national archive, a single GeoPackage covering all
// states and territories.
const National = "National"

// locationNames maps location code to display name for every per-region
// gazetteer archive: 50 states, DC, and the island territories.
var locationNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana",
	"IA": "Iowa", "KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana",
	"ME": "Maine", "MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan",
	"MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri", "MT": "Montana",
	"NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina",
	"ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma", "OR": "Oregon",
	"PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",

	"AS": "American Samoa", "GU": "Guam", "MP": "Northern Mariana Islands",
	"PR": "Puerto Rico", "VI": "U.S. Virgin Islands",
	"UM": "U.S. Minor Outlying Islands",
}

// nationalAliases are accepted spellings for the national archive, compared
// after uppercasing.
var nationalAliases = map[string]bool{
	"NATIONAL": true,
	"ALL":      true,
	"US":       true,
	"USA":      true,
}

// InvalidLocationError reports an identifier that names no gazetteer archive.
type InvalidLocationError struct {
	Location string
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("gazetteer: unknown location %q", e.Location)
}

// NormalizeLocation canonicalizes a user-supplied location identifier. State
// and territory codes are uppercased; national aliases (national, all, us,
// usa) collapse to National. Anything else returns an *InvalidLocationError
// before any I/O happens.
func NormalizeLocation(loc string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(loc))
	if nationalAliases[upper] {
		return National, nil
	}
	if _, ok := locationNames[upper]; ok {
		return upper, nil
	}
	return "", &InvalidLocationError{Location: loc}
}

// LocationName returns the display name for a canonical location code, or ""
// for an unknown code.
func LocationName(code string) string {
	if code == National {
		return "United States (all regions)"
	}
	return locationNames[code]
}

// AvailableLocations returns every canonical location code, state and
// territory codes sorted first with National last.
func AvailableLocations() []string {
	codes := make([]string, 0, len(locationNames)+1)
	for code := range locationNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return append(codes, National)
}
