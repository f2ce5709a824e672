package model

// Centralized icons for listings
// Using simple single-width characters for consistent terminal rendering
const (
	IconActive   = "◆" // Installation currently first on PATH
	IconMamba    = "»" // Fast installer flavor
	IconStandard = " "
	IconOutdated = "↑" // Newer conda release available
	IconInvalid  = "✗" // Rejected candidate (debug output)
	IconOK       = " " // Space (OK - no icon to reduce noise)
)

// FlavorIcon returns the listing icon for f.
func FlavorIcon(f Flavor) string {
	if f == FlavorMamba {
		return IconMamba
	}
	return IconStandard
}
