package region

import (
	"strings"
	"testing"

	"github.com/concord-merge/concord/pkg/entity"
)

func concat(regions []Region) string {
	var b strings.Builder
	for _, r := range regions {
		b.WriteString(r.Content())
	}
	return b.String()
}

func TestExtract_NoEntities(t *testing.T) {
	content := "just text\nno declarations\n"
	regions := Extract(content, nil)
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if regions[0].IsEntity {
		t.Fatal("expected interstitial region")
	}
	if regions[0].Key() != keyFileOnly {
		t.Errorf("expected key %q, got %q", keyFileOnly, regions[0].Key())
	}
	if concat(regions) != content {
		t.Errorf("round-trip mismatch: got %q, want %q", concat(regions), content)
	}
}

func TestExtract_HeaderEntityFooter(t *testing.T) {
	content := "package main\n\nfunc Hello() {\n\tprintln(\"hi\")\n}\n\nfunc Goodbye() {\n\tprintln(\"bye\")\n}\n\n// end\n"
	entities := []entity.Entity{
		{Identity: "hello", Name: "Hello", Type: "function", StartLine: 3, EndLine: 5},
		{Identity: "goodbye", Name: "Goodbye", Type: "function", StartLine: 7, EndLine: 9},
	}

	regions := Extract(content, entities)
	if concat(regions) != content {
		t.Fatalf("round-trip mismatch:\ngot:  %q\nwant: %q", concat(regions), content)
	}

	if regions[0].IsEntity || regions[0].Key() != keyFileHeader {
		t.Errorf("expected first region to be file_header, got %+v", regions[0])
	}

	var sawBetween bool
	for _, r := range regions {
		if !r.IsEntity && strings.HasPrefix(r.Key(), "between:hello:goodbye") {
			sawBetween = true
		}
	}
	if !sawBetween {
		t.Error("expected a between:hello:goodbye interstitial region")
	}

	last := regions[len(regions)-1]
	if last.IsEntity {
		t.Error("expected last region to be the file_footer interstitial, got an entity")
	} else if last.Key() != keyFileFooter {
		t.Errorf("expected last region key %q, got %q", keyFileFooter, last.Key())
	}
}

func TestExtract_NoTrailingNewline(t *testing.T) {
	content := "func A() {}\nfunc B() {}"
	entities := []entity.Entity{
		{Identity: "a", Name: "A", Type: "function", StartLine: 1, EndLine: 1},
		{Identity: "b", Name: "B", Type: "function", StartLine: 2, EndLine: 2},
	}
	regions := Extract(content, entities)
	// The final line gains a terminating newline; nothing else changes.
	if concat(regions) != content+"\n" {
		t.Fatalf("round-trip mismatch:\ngot:  %q\nwant: %q", concat(regions), content+"\n")
	}
}

func TestExtract_EntityAtFileStart(t *testing.T) {
	content := "func A() {}\n\nfunc B() {}\n"
	entities := []entity.Entity{
		{Identity: "a", Name: "A", Type: "function", StartLine: 1, EndLine: 1},
		{Identity: "b", Name: "B", Type: "function", StartLine: 3, EndLine: 3},
	}
	regions := Extract(content, entities)
	if !regions[0].IsEntity {
		t.Error("expected first region to be the entity when there is no header text")
	}
	if concat(regions) != content {
		t.Fatalf("round-trip mismatch:\ngot:  %q\nwant: %q", concat(regions), content)
	}
}

func TestExtract_UnsortedInputIsSorted(t *testing.T) {
	content := "package main\n\nfunc Hello() {\n\tprintln(\"hi\")\n}\n\nfunc Goodbye() {\n\tprintln(\"bye\")\n}\n"
	entities := []entity.Entity{
		{Identity: "goodbye", Name: "Goodbye", Type: "function", StartLine: 7, EndLine: 9},
		{Identity: "hello", Name: "Hello", Type: "function", StartLine: 3, EndLine: 5},
	}

	regions := Extract(content, entities)
	if concat(regions) != content {
		t.Fatalf("round-trip mismatch:\ngot:  %q\nwant: %q", concat(regions), content)
	}

	var order []string
	for _, r := range regions {
		if r.IsEntity {
			order = append(order, r.Entity.EntityID)
		}
	}
	if len(order) != 2 || order[0] != "hello" || order[1] != "goodbye" {
		t.Errorf("expected entities walked in StartLine order regardless of input order, got %v", order)
	}

	if entities[0].Identity != "goodbye" {
		t.Error("Extract must not mutate the caller's entity slice")
	}
}
