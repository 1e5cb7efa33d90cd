// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package recommend

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func writeArtifactFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write artifact file: %v", err)
	}
	return path
}

const validArtifactJSON = `{
	"user_mapping": {"alice": 0, "bob": 1},
	"item_mapping": {"i1": 0, "i2": 1, "i3": 2},
	"user_interactions": {"alice": ["i1"], "bob": ["i2", "i3"]},
	"item_popularity": [["i2", 10.0], ["i1", 7.5], ["i3", 3.0]],
	"user_factors": [[1.0, 0.0], [0.0, 1.0]],
	"item_factors": [[0.9, 0.1], [0.5, 0.5], [0.1, 0.9]],
	"item_biases": [0.1, 0.0, -0.1],
	"global_bias": 0.05
}`

func TestLoadArtifact(t *testing.T) {
	path := writeArtifactFile(t, validArtifactJSON)

	a, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}

	if a.NumUsers() != 2 {
		t.Errorf("NumUsers() = %d, want 2", a.NumUsers())
	}
	if a.NumItems() != 3 {
		t.Errorf("NumItems() = %d, want 3", a.NumItems())
	}
	if a.GlobalBias != 0.05 {
		t.Errorf("GlobalBias = %f, want 0.05", a.GlobalBias)
	}
	if len(a.ItemPopularity) != 3 || a.ItemPopularity[0].ItemID != "i2" || a.ItemPopularity[0].Score != 10.0 {
		t.Errorf("ItemPopularity = %+v, want i2 first with score 10", a.ItemPopularity)
	}
	if a.itemIDs[1] != "i2" {
		t.Errorf("reverse index [1] = %q, want i2", a.itemIDs[1])
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadArtifact(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("LoadArtifact() should fail for missing file")
	}
}

func TestLoadArtifactInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "not JSON",
			content: "not a model",
			wantErr: "failed to parse",
		},
		{
			name:    "empty item mapping",
			content: `{"user_mapping": {}, "item_mapping": {}}`,
			wantErr: "item_mapping is empty",
		},
		{
			name: "out-of-range item index",
			content: `{
				"user_mapping": {},
				"item_mapping": {"i1": 5},
				"user_factors": [],
				"item_factors": [[0.1]],
				"item_biases": [0.0]
			}`,
			wantErr: "out-of-range index",
		},
		{
			name: "factor row count mismatch",
			content: `{
				"user_mapping": {"alice": 0},
				"item_mapping": {"i1": 0},
				"user_factors": [],
				"item_factors": [[0.1]],
				"item_biases": [0.0]
			}`,
			wantErr: "user_factors has 0 rows",
		},
		{
			name: "factor dimension mismatch",
			content: `{
				"user_mapping": {"alice": 0},
				"item_mapping": {"i1": 0},
				"user_factors": [[1.0, 0.0]],
				"item_factors": [[0.1]],
				"item_biases": [0.0]
			}`,
			wantErr: "dimension",
		},
		{
			name: "bias count mismatch",
			content: `{
				"user_mapping": {"alice": 0},
				"item_mapping": {"i1": 0},
				"user_factors": [[1.0]],
				"item_factors": [[0.1]],
				"item_biases": []
			}`,
			wantErr: "item_biases has 0 entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifactFile(t, tt.content)
			_, err := LoadArtifact(path)
			if err == nil {
				t.Fatal("LoadArtifact() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadArtifactPopularityObjectForm(t *testing.T) {
	path := writeArtifactFile(t, `{
		"user_mapping": {},
		"item_mapping": {"i1": 0},
		"item_popularity": [{"item_id": "i1", "score": 4.2}, {"item_id": "new-release", "score": 9.9}],
		"user_factors": [],
		"item_factors": [[0.1]],
		"item_biases": [0.0]
	}`)

	a, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	if len(a.ItemPopularity) != 2 {
		t.Fatalf("len(ItemPopularity) = %d, want 2", len(a.ItemPopularity))
	}
	// Load re-sorts by score descending; the unmapped item leads because
	// popularity may rank items absent from the factor mapping.
	if a.ItemPopularity[0].ItemID != "new-release" || a.ItemPopularity[0].Score != 9.9 {
		t.Errorf("entry 0 = %+v, want {new-release 9.9}", a.ItemPopularity[0])
	}
	if a.ItemPopularity[1].ItemID != "i1" || a.ItemPopularity[1].Score != 4.2 {
		t.Errorf("entry 1 = %+v, want {i1 4.2}", a.ItemPopularity[1])
	}
}

func TestLoadArtifactSortsPopularity(t *testing.T) {
	path := writeArtifactFile(t, `{
		"user_mapping": {},
		"item_mapping": {"low": 0, "high": 1, "mid": 2, "tie-a": 3, "tie-b": 4},
		"item_popularity": [["low", 1.0], ["tie-a", 5.0], ["high", 9.0], ["tie-b", 5.0], ["mid", 5.0]],
		"user_factors": [],
		"item_factors": [[0.1], [0.2], [0.3], [0.4], [0.5]],
		"item_biases": [0, 0, 0, 0, 0]
	}`)

	a, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}

	got := make([]string, len(a.ItemPopularity))
	for i, entry := range a.ItemPopularity {
		got[i] = entry.ItemID
	}
	// Stable sort: equal scores keep their artifact order.
	want := []string{"high", "tie-a", "tie-b", "mid", "low"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("popularity order = %v, want %v", got, want)
	}
}

func TestPopularityEntryUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    PopularityEntry
		wantErr bool
	}{
		{"pair form", `["song-1", 12.5]`, PopularityEntry{ItemID: "song-1", Score: 12.5}, false},
		{"object form", `{"item_id": "song-2", "score": 3}`, PopularityEntry{ItemID: "song-2", Score: 3}, false},
		{"pair too short", `["song-1"]`, PopularityEntry{}, true},
		{"pair too long", `["song-1", 1, 2]`, PopularityEntry{}, true},
		{"pair with non-string id", `[7, 12.5]`, PopularityEntry{}, true},
		{"object missing id", `{"score": 1.0}`, PopularityEntry{}, true},
		{"scalar", `42`, PopularityEntry{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got PopularityEntry
			err := json.Unmarshal([]byte(tt.data), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("entry = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPopularityEntryMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	entry := PopularityEntry{ItemID: "song-1", Score: 2.5}
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back PopularityEntry
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != entry {
		t.Errorf("round trip = %+v, want %+v", back, entry)
	}
}
