// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// testEngine builds a small factor model:
//
//	alice has factor [1, 0] so her item scores follow the first factor
//	dimension: i1 > i2 > i3 > i4. She has already consumed i1.
//	bob has factor [0, 1], which scores every item identically.
//	The popularity ranking leads with "fresh", an item without factors.
func testEngine(t *testing.T) *Engine {
	t.Helper()

	a := &Artifact{
		UserMapping: map[string]int{"alice": 0, "bob": 1},
		ItemMapping: map[string]int{"i1": 0, "i2": 1, "i3": 2, "i4": 3},
		UserInteractions: map[string][]string{
			"alice": {"i1"},
			"dave":  {"fresh", "i1"},
		},
		ItemPopularity: []PopularityEntry{
			{ItemID: "fresh", Score: 99},
			{ItemID: "i1", Score: 10},
			{ItemID: "i2", Score: 8},
			{ItemID: "i3", Score: 6},
			{ItemID: "i4", Score: 4},
		},
		UserFactors: [][]float64{{1, 0}, {0, 1}},
		ItemFactors: [][]float64{{1.0, 0}, {0.8, 0}, {0.6, 0}, {0.4, 0}},
		ItemBiases:  []float64{0, 0, 0, 0},
	}
	if err := a.validate(); err != nil {
		t.Fatalf("test artifact invalid: %v", err)
	}
	a.normalize()
	return NewEngine(a)
}

func TestRecommendNonPositiveLimit(t *testing.T) {
	engine := testEngine(t)
	ctx := context.Background()

	for _, limit := range []int{0, -1, -100} {
		items, fallback, err := engine.Recommend(ctx, "alice", limit)
		if err != nil {
			t.Fatalf("Recommend(limit=%d) error = %v", limit, err)
		}
		if len(items) != 0 {
			t.Errorf("Recommend(limit=%d) = %v, want empty", limit, items)
		}
		if !fallback {
			t.Errorf("Recommend(limit=%d) fallback = false, want true", limit)
		}
	}
}

func TestRecommendKnownUser(t *testing.T) {
	engine := testEngine(t)

	items, fallback, err := engine.Recommend(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// i1 is in alice's history; the next best scores are i2 then i3.
	if want := []string{"i2", "i3"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
	if fallback {
		t.Error("fallback = true, want false for a pure model result")
	}
}

func TestRecommendUnknownUserFallsBackToPopularity(t *testing.T) {
	engine := testEngine(t)

	items, fallback, err := engine.Recommend(context.Background(), "carol", 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"fresh", "i1", "i2"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
	if !fallback {
		t.Error("fallback = false, want true for unknown user")
	}
}

func TestRecommendExcludesHistoryFromFallback(t *testing.T) {
	engine := testEngine(t)

	// dave has interaction history but no factor row, so the popularity
	// path serves him minus what he already consumed.
	items, fallback, err := engine.Recommend(context.Background(), "dave", 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"i2", "i3", "i4"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
	if !fallback {
		t.Error("fallback = false, want true")
	}
}

func TestRecommendPadsFromPopularity(t *testing.T) {
	engine := testEngine(t)

	// alice can get at most 3 model items (i2, i3, i4); asking for more
	// pads from popularity, which contributes the unmapped "fresh" item.
	items, fallback, err := engine.Recommend(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"i2", "i3", "i4", "fresh"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
	if !fallback {
		t.Error("fallback = false, want true when padding was used")
	}
}

func TestRecommendShortfallWithoutPaddingSetsFallback(t *testing.T) {
	// One of two catalog items is in the user's history and the popularity
	// ranking is empty, so the request cannot be filled. The short result
	// must still be flagged as a fallback.
	a := &Artifact{
		UserMapping:      map[string]int{"u": 0},
		ItemMapping:      map[string]int{"i1": 0, "i2": 1},
		UserInteractions: map[string][]string{"u": {"i2"}},
		UserFactors:      [][]float64{{1}},
		ItemFactors:      [][]float64{{0.9}, {0.5}},
		ItemBiases:       []float64{0, 0},
	}
	if err := a.validate(); err != nil {
		t.Fatalf("test artifact invalid: %v", err)
	}
	a.normalize()
	engine := NewEngine(a)

	items, fallback, err := engine.Recommend(context.Background(), "u", 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"i1"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
	if !fallback {
		t.Error("fallback = false, want true for a short result")
	}
}

func TestRecommendSortsUnsortedPopularity(t *testing.T) {
	a := &Artifact{
		ItemMapping: map[string]int{"low": 0, "high": 1, "mid": 2},
		ItemFactors: [][]float64{{0}, {0}, {0}},
		ItemBiases:  []float64{0, 0, 0},
		ItemPopularity: []PopularityEntry{
			{ItemID: "low", Score: 1},
			{ItemID: "high", Score: 9},
			{ItemID: "mid", Score: 5},
		},
	}
	if err := a.validate(); err != nil {
		t.Fatalf("test artifact invalid: %v", err)
	}
	a.normalize()
	engine := NewEngine(a)

	items, fallback, err := engine.Recommend(context.Background(), "nobody", 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"high", "mid"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v (descending score)", items, want)
	}
	if !fallback {
		t.Error("fallback = false, want true for unknown user")
	}
}

func TestRecommendDeterministicTieBreak(t *testing.T) {
	engine := testEngine(t)

	// All items score identically for bob, so ordering falls back to the
	// item index and must be stable across calls.
	first, _, err := engine.Recommend(context.Background(), "bob", 4)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"i1", "i2", "i3", "i4"}; !reflect.DeepEqual(first, want) {
		t.Errorf("items = %v, want %v", first, want)
	}
	for i := 0; i < 5; i++ {
		again, _, err := engine.Recommend(context.Background(), "bob", 4)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("run %d = %v, want stable %v", i, again, first)
		}
	}
}

func TestRecommendNoResults(t *testing.T) {
	a := &Artifact{
		ItemMapping: map[string]int{"i1": 0},
		ItemFactors: [][]float64{{0.5}},
		ItemBiases:  []float64{0},
	}
	if err := a.validate(); err != nil {
		t.Fatalf("test artifact invalid: %v", err)
	}
	a.normalize()
	engine := NewEngine(a)

	// Unknown user with an empty popularity ranking has nothing to serve.
	_, _, err := engine.Recommend(context.Background(), "nobody", 5)
	if !errors.Is(err, ErrNoRecommendations) {
		t.Fatalf("error = %v, want ErrNoRecommendations", err)
	}
}

func TestRecommendBiasesAffectRanking(t *testing.T) {
	a := &Artifact{
		UserMapping: map[string]int{"u": 0},
		ItemMapping: map[string]int{"low": 0, "high": 1},
		UserFactors: [][]float64{{1}},
		// Raw factor scores favor "low", but its bias drags it under.
		ItemFactors: [][]float64{{0.9}, {0.5}},
		ItemBiases:  []float64{-1.0, 0.2},
		GlobalBias:  0.1,
	}
	if err := a.validate(); err != nil {
		t.Fatalf("test artifact invalid: %v", err)
	}
	a.normalize()
	engine := NewEngine(a)

	items, _, err := engine.Recommend(context.Background(), "u", 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"high", "low"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
}

func TestRecommendCanceledContext(t *testing.T) {
	engine := testEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := engine.Recommend(ctx, "alice", 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
