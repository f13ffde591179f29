package classify

import (
	"encoding/json"
	"fmt"
	"os"

	"spikesort/internal/features"
)

// Model is the serialized form of a fitted classifier. Persisting the
// model lets a trained classifier be reused across runs without
// repeating the training phase.
type Model struct {
	NumComponents int                  `json:"num_components"`
	Projection    *features.Projection `json:"projection"`
	Points        [][]float64          `json:"points"`
	Labels        []int                `json:"labels"`
	Offsets       []int                `json:"offsets"`
}

// Save writes a fitted classifier to a JSON file.
func (c *SnippetClassifier) Save(path string) error {
	if !c.fitted {
		return fmt.Errorf("classifier is not fitted")
	}
	model := Model{
		NumComponents: c.numComponents,
		Projection:    c.projection,
		Points:        c.points,
		Labels:        c.labels,
		Offsets:       c.offsets,
	}
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal classifier: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadSnippetClassifier reads a fitted classifier from a JSON file.
func LoadSnippetClassifier(path string) (*SnippetClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("unmarshal classifier: %w", err)
	}
	if model.Projection == nil {
		return nil, fmt.Errorf("classifier model has no projection")
	}
	if len(model.Points) != len(model.Labels) || len(model.Points) != len(model.Offsets) {
		return nil, fmt.Errorf("classifier model is inconsistent: %d points, %d labels, %d offsets",
			len(model.Points), len(model.Labels), len(model.Offsets))
	}
	return &SnippetClassifier{
		numComponents: model.NumComponents,
		fitted:        true,
		projection:    model.Projection,
		points:        model.Points,
		labels:        model.Labels,
		offsets:       model.Offsets,
	}, nil
}
