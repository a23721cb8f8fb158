package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// LiveModel is one entry from the provider's model listing endpoint.
type LiveModel struct {
	Name        string
	DisplayName string
	Description string
}

// ListLiveModels queries the provider for the models the key can access.
// Only generateContent-capable models are returned; the static catalog stays
// the source of truth for defaults.
func ListLiveModels(ctx context.Context, apiKey string) ([]LiveModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create model listing client: %w", err)
	}
	defer client.Close()

	var models []LiveModel
	it := client.ListModels(ctx)
	for {
		m, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("model listing failed: %w", err)
		}
		if !supportsGenerate(m) {
			continue
		}
		models = append(models, LiveModel{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	return models, nil
}

func supportsGenerate(m *genai.ModelInfo) bool {
	for _, method := range m.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}
