package domain

// Flag taxonomy returned by the vision safety classifier.
const (
	FlagNone      = "none"
	FlagWeapon    = "weapon"
	FlagDrugs     = "drugs"
	FlagViolence  = "violence"
	FlagAbuse     = "abuse"
	FlagTerrorism = "terrorism"
	FlagStolen    = "stolen"
	FlagDocument  = "document"
	FlagSexual    = "sexual"
	FlagHate      = "hate"
	FlagUnknown   = "unknown"
)

// SafetyVerdict is the structured verdict for a single image.
type SafetyVerdict struct {
	Safe         bool           `json:"safe"`
	FlagType     string         `json:"flag_type"`
	Confidence   string         `json:"confidence"` // high | medium | low
	Message      string         `json:"message"`
	AllowListing *bool          `json:"allow_listing,omitempty"`
	Product      *VisionProduct `json:"product,omitempty"`
}

// VisionProduct is the classifier's product summary for a safe image,
// used to backfill draft metadata and title hints.
type VisionProduct struct {
	Title      string            `json:"title,omitempty"`
	Category   string            `json:"category,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Condition  string            `json:"condition,omitempty"`
	Quantity   int               `json:"quantity,omitempty"`
}

// BlockedImage records one rejected image reference and why.
type BlockedImage struct {
	Path       string `json:"path"`
	Reason     string `json:"reason"`
	FlagType   string `json:"flag_type"`
	Confidence string `json:"confidence"`
}
