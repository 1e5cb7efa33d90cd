// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package recommend serves personalized recommendations from a trained
// model artifact exported by the offline training pipeline.
//
// The artifact carries latent user/item factors plus per-item biases and a
// global popularity ranking. Serving is a pure forward pass: dot products
// over the factor matrices, no training state.
package recommend

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// PopularityEntry is one item in the global popularity ranking.
//
// The training pipeline has exported this in two shapes over time: a
// two-element array ["item_id", score] and an object
// {"item_id": ..., "score": ...}. Both are accepted.
type PopularityEntry struct {
	ItemID string
	Score  float64
}

// UnmarshalJSON accepts both the pair-array and the object encoding.
func (p *PopularityEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("popularity pair has %d elements, want 2", len(pair))
		}
		if err := json.Unmarshal(pair[0], &p.ItemID); err != nil {
			return fmt.Errorf("popularity pair item id: %w", err)
		}
		if err := json.Unmarshal(pair[1], &p.Score); err != nil {
			return fmt.Errorf("popularity pair score: %w", err)
		}
		return nil
	}

	var obj struct {
		ItemID string  `json:"item_id"`
		Score  float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("popularity entry is neither pair nor object: %w", err)
	}
	if obj.ItemID == "" {
		return fmt.Errorf("popularity entry missing item_id")
	}
	p.ItemID = obj.ItemID
	p.Score = obj.Score
	return nil
}

// MarshalJSON writes the object form.
func (p PopularityEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ItemID string  `json:"item_id"`
		Score  float64 `json:"score"`
	}{ItemID: p.ItemID, Score: p.Score})
}

// Artifact is the trained model as exported by the offline pipeline.
//
// UserMapping and ItemMapping assign each external ID a row index into the
// factor matrices. UserInteractions lists each known user's consumed items,
// used to exclude history from recommendations.
type Artifact struct {
	UserMapping      map[string]int      `json:"user_mapping"`
	ItemMapping      map[string]int      `json:"item_mapping"`
	UserInteractions map[string][]string `json:"user_interactions"`
	ItemPopularity   []PopularityEntry   `json:"item_popularity"`

	UserFactors [][]float64 `json:"user_factors"`
	ItemFactors [][]float64 `json:"item_factors"`
	ItemBiases  []float64   `json:"item_biases"`
	GlobalBias  float64     `json:"global_bias"`

	// itemIDs is the reverse of ItemMapping, built on load.
	itemIDs []string
}

// LoadArtifact reads and validates a model artifact from disk.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	a.normalize()
	return &a, nil
}

// normalize orders the popularity ranking by score descending and builds
// the reverse item index. The export pipeline usually pre-sorts the
// ranking, but serving order must not depend on that.
func (a *Artifact) normalize() {
	sort.SliceStable(a.ItemPopularity, func(i, j int) bool {
		return a.ItemPopularity[i].Score > a.ItemPopularity[j].Score
	})
	a.buildReverseIndex()
}

// validate checks internal consistency: index ranges, matrix dimensions,
// and that popularity entries reference known items.
func (a *Artifact) validate() error {
	if len(a.ItemMapping) == 0 {
		return fmt.Errorf("item_mapping is empty")
	}

	numUsers := len(a.UserMapping)
	numItems := len(a.ItemMapping)

	for id, idx := range a.UserMapping {
		if idx < 0 || idx >= numUsers {
			return fmt.Errorf("user %q has out-of-range index %d", id, idx)
		}
	}
	for id, idx := range a.ItemMapping {
		if idx < 0 || idx >= numItems {
			return fmt.Errorf("item %q has out-of-range index %d", id, idx)
		}
	}

	if len(a.UserFactors) != numUsers {
		return fmt.Errorf("user_factors has %d rows, want %d", len(a.UserFactors), numUsers)
	}
	if len(a.ItemFactors) != numItems {
		return fmt.Errorf("item_factors has %d rows, want %d", len(a.ItemFactors), numItems)
	}
	if len(a.ItemBiases) != numItems {
		return fmt.Errorf("item_biases has %d entries, want %d", len(a.ItemBiases), numItems)
	}

	var dim int
	if numUsers > 0 {
		dim = len(a.UserFactors[0])
	} else if numItems > 0 {
		dim = len(a.ItemFactors[0])
	}
	for i, row := range a.UserFactors {
		if len(row) != dim {
			return fmt.Errorf("user_factors row %d has dimension %d, want %d", i, len(row), dim)
		}
	}
	for i, row := range a.ItemFactors {
		if len(row) != dim {
			return fmt.Errorf("item_factors row %d has dimension %d, want %d", i, len(row), dim)
		}
	}

	// ItemPopularity deliberately is NOT restricted to mapped items: the
	// ranking may include catalog items added after the last training run,
	// which have no factors yet but are valid fallback recommendations.
	for i, entry := range a.ItemPopularity {
		if entry.ItemID == "" {
			return fmt.Errorf("item_popularity entry %d has empty item id", i)
		}
	}

	return nil
}

func (a *Artifact) buildReverseIndex() {
	a.itemIDs = make([]string, len(a.ItemMapping))
	for id, idx := range a.ItemMapping {
		a.itemIDs[idx] = id
	}
}

// NumUsers returns the number of users the model was trained on.
func (a *Artifact) NumUsers() int { return len(a.UserMapping) }

// NumItems returns the number of items the model was trained on.
func (a *Artifact) NumItems() int { return len(a.ItemMapping) }
