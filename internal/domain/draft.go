package domain

// DraftState is the lifecycle state of an in-progress listing draft.
type DraftState string

const (
	StateDraft   DraftState = "DRAFT"
	StatePreview DraftState = "PREVIEW"
	StateEdit    DraftState = "EDIT"
	StatePublish DraftState = "PUBLISH"
)

// Draft is the single active listing draft for a user. The draft id doubles
// as the eventual listing id on publish so storage paths written under it
// stay in sync with the DB row.
type Draft struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	State         DraftState             `json:"state"`
	Title         string                 `json:"title,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Price         *int                   `json:"price,omitempty"`
	Category      string                 `json:"category,omitempty"`
	Condition     string                 `json:"condition,omitempty"`
	Location      string                 `json:"location,omitempty"`
	Stock         int                    `json:"stock,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Images        []string               `json:"images,omitempty"`
	VisionProduct *VisionProduct         `json:"vision_product,omitempty"`
}

// Canonical condition values. Free text is mapped at ingestion.
const (
	ConditionNew         = "new"
	ConditionUsed        = "used"
	ConditionRefurbished = "refurbished"
)
