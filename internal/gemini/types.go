package gemini

// InlineData carries base64-encoded media inside a part.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Part is one element of a content block: either text or inline media.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// Content is an ordered list of parts.
type Content struct {
	Parts []Part `json:"parts"`
}

// ThinkingConfig bounds the model's internal reasoning budget.
type ThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

// GenerationConfig tunes a generateContent call.
type GenerationConfig struct {
	ThinkingConfig ThinkingConfig `json:"thinkingConfig"`
}

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// GenerateResponse is the subset of the generateContent response we read.
type GenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ErrorResponse is the provider's error envelope on non-200 statuses.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
