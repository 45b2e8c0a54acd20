package normalize

import "github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/domain"

// Metadata merges the three metadata sources in priority order: existing
// draft metadata (lowest), vision classifier attributes (fill-in only),
// explicit user-provided metadata (highest, overwrites). The result always
// carries a "type" key; "general" when nothing else determined it.
func Metadata(existing map[string]interface{}, product *domain.VisionProduct, explicit map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(explicit)+2)
	for k, v := range existing {
		merged[k] = v
	}
	if product != nil {
		for k, v := range product.Attributes {
			if _, taken := merged[k]; !taken && v != "" {
				merged[k] = v
			}
		}
	}
	for k, v := range explicit {
		merged[k] = v
	}
	if t, ok := merged["type"].(string); !ok || t == "" {
		merged["type"] = "general"
	}
	return merged
}
