package metadata

type GeminiModel struct {
	ID         string
	Label      string
	Multimodal bool
}

// DefaultModel is used when no model is persisted in the settings.
const DefaultModel = "gemini-3-flash-preview"

var GeminiModels = []GeminiModel{
	{
		ID:         "gemini-3-flash-preview",
		Label:      "Gemini 3 Flash (preview)",
		Multimodal: true,
	},
	{
		ID:         "gemini-3-pro-preview",
		Label:      "Gemini 3 Pro (preview)",
		Multimodal: true,
	},
	{
		ID:         "gemini-2.5-flash",
		Label:      "Gemini 2.5 Flash",
		Multimodal: true,
	},
}

func GeminiModelIDs() []string {
	ids := make([]string, 0, len(GeminiModels))
	for _, m := range GeminiModels {
		ids = append(ids, m.ID)
	}
	return ids
}

// Lookup returns the catalog entry for modelID. Unknown IDs fall back to a
// generic entry so user-typed models still work.
func Lookup(modelID string) (GeminiModel, bool) {
	for _, m := range GeminiModels {
		if m.ID == modelID {
			return m, true
		}
	}
	return GeminiModel{
		ID:         modelID,
		Label:      modelID,
		Multimodal: true,
	}, false
}
