package reconstruct

import (
	"strings"
	"testing"

	"github.com/concord-merge/concord/pkg/entity"
	"github.com/concord-merge/concord/pkg/region"
	"github.com/concord-merge/concord/pkg/resolve"
)

func entityRegion(id string) region.Region {
	return region.Region{
		IsEntity: true,
		Entity:   region.EntityRegion{EntityID: id},
	}
}

func interstitialRegion(key, content string) region.Region {
	return region.Region{
		Interstitial: region.InterstitialRegion{PositionKey: key, Content: content},
	}
}

func TestBuild_OursSkeletonOrder(t *testing.T) {
	oursRegions := []region.Region{
		interstitialRegion("file_header", "package main\n\n"),
		entityRegion("a"),
		interstitialRegion("between:a:b", "\n"),
		entityRegion("b"),
	}
	resolved := map[string]resolve.Outcome{
		"a": {Kind: resolve.Clean, Text: "func A() {}\n"},
		"b": {Kind: resolve.Clean, Text: "func B() {}\n"},
	}
	interstitials := map[string]string{
		"file_header":  "package main\n\n",
		"between:a:b": "\n",
	}

	got := Build(oursRegions, nil, resolved, interstitials)
	want := "package main\n\nfunc A() {}\n\nfunc B() {}\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuild_TheirsOnlyEntitySplicedAfterAnchor(t *testing.T) {
	oursRegions := []region.Region{
		entityRegion("a"),
		entityRegion("c"),
	}
	// theirs order: a, b, c — b is new, anchored after a.
	theirsEntities := []entity.Entity{
		{Identity: "a"},
		{Identity: "b"},
		{Identity: "c"},
	}
	resolved := map[string]resolve.Outcome{
		"a": {Kind: resolve.Clean, Text: "A\n"},
		"b": {Kind: resolve.Clean, Text: "B\n"},
		"c": {Kind: resolve.Clean, Text: "C\n"},
	}

	got := Build(oursRegions, theirsEntities, resolved, nil)
	want := "A\nB\nC\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuild_TheirsOnlyEntityAtFrontWhenNoAnchor(t *testing.T) {
	oursRegions := []region.Region{
		entityRegion("a"),
	}
	theirsEntities := []entity.Entity{
		{Identity: "b"},
		{Identity: "a"},
	}
	resolved := map[string]resolve.Outcome{
		"a": {Kind: resolve.Clean, Text: "A\n"},
		"b": {Kind: resolve.Clean, Text: "B\n"},
	}

	got := Build(oursRegions, theirsEntities, resolved, nil)
	want := "B\nA\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuild_DeletedEntityContributesNothing(t *testing.T) {
	oursRegions := []region.Region{
		entityRegion("a"),
		entityRegion("b"),
	}
	resolved := map[string]resolve.Outcome{
		"a": {Kind: resolve.Deleted},
		"b": {Kind: resolve.Clean, Text: "B\n"},
	}

	got := Build(oursRegions, nil, resolved, nil)
	if strings.Contains(got, "A") {
		t.Errorf("expected deleted entity to contribute nothing, got %q", got)
	}
	if got != "B\n" {
		t.Errorf("got %q, want %q", got, "B\n")
	}
}

func TestBuild_ConflictedEntityUsesMarkers(t *testing.T) {
	oursRegions := []region.Region{
		entityRegion("a"),
	}
	resolved := map[string]resolve.Outcome{
		"a": {
			Kind: resolve.Conflicted,
		},
	}
	got := Build(oursRegions, nil, resolved, nil)
	if got != resolved["a"].Conflict.ToMarkers() {
		t.Errorf("expected conflict markers, got %q", got)
	}
}
