package domain

// ListingSummary is the compact per-result shape cached after every search
// and used to resolve ordinal references ("3 nolu ilan").
type ListingSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Price        *int     `json:"price,omitempty"`
	Category     string   `json:"category,omitempty"`
	Location     string   `json:"location,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	Description  string   `json:"description,omitempty"`
	SignedImages []string `json:"signed_images,omitempty"`
	OwnerName    string   `json:"user_name,omitempty"`
	OwnerPhone   string   `json:"user_phone,omitempty"`
}
