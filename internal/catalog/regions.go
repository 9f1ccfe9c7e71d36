package catalog

import "strings"

// ZoneUnknown is the sentinel for wineries no rule can place.
const ZoneUnknown = "unknown"

// ClassifyWinery resolves the display zone of a winery. Precedence: the
// explicit region tag matched against zone ids and labels (plus the legacy
// Valle d'Aosta aliases), then a location substring match against the per-zone
// town lists, then ZoneUnknown. Pure function of the record, so import order
// never changes the result.
func ClassifyWinery(w Winery) string {
	loc := strings.ToLower(w.Location)
	manual := strings.ToLower(w.Region)

	if manual != "" {
		for _, region := range Regions {
			for _, zone := range region.Zones {
				if strings.Contains(manual, zone.ID) || strings.Contains(manual, strings.ToLower(zone.Label)) {
					return zone.ID
				}
			}
			if region.ID == "vda" {
				if strings.Contains(manual, "bassa") {
					return "bassa"
				}
				if strings.Contains(manual, "nus") || strings.Contains(manual, "quart") {
					return "nus-quart"
				}
				if strings.Contains(manual, "plaine") && !strings.Contains(manual, "valdigne") {
					return "la-plaine"
				}
				if strings.Contains(manual, "media valle") || strings.Contains(manual, "verso la valdigne") {
					return "plaine-to-valdigne"
				}
			}
		}
	}

	if loc != "" {
		for _, region := range Regions {
			for _, zone := range region.Zones {
				for _, town := range region.Towns[zone.ID] {
					if strings.Contains(loc, town) {
						return zone.ID
					}
				}
			}
		}
	}

	return ZoneUnknown
}

// RegionOf returns the id of the region owning the given zone, or "" for
// ZoneUnknown and unrecognized zones.
func RegionOf(zoneID string) string {
	for _, region := range Regions {
		for _, zone := range region.Zones {
			if zone.ID == zoneID {
				return region.ID
			}
		}
	}
	return ""
}
