package usecase

import (
	"strings"
	"testing"

	"github.com/kavelar/moviemind/domains/discovery"
)

func TestPrompterTrending(t *testing.T) {
	req := NewPrompter().Trending()

	if req.Count != 10 {
		t.Fatalf("Trending().Count = %d, want 10", req.Count)
	}
	if !strings.Contains(req.Instruction, "trending") {
		t.Errorf("trending instruction missing keyword: %q", req.Instruction)
	}
	if !strings.Contains(req.Instruction, "last 5 years") {
		t.Errorf("trending instruction missing recency window: %q", req.Instruction)
	}
	if !strings.Contains(req.Instruction, "poster_path") {
		t.Errorf("trending instruction missing image path hint: %q", req.Instruction)
	}
	if req.System == "" {
		t.Error("trending request has empty system instruction")
	}
}

func TestPrompterCategoryTemplates(t *testing.T) {
	p := NewPrompter()

	known := []string{
		discovery.CategoryTV,
		discovery.CategoryMovies,
		discovery.CategoryNew,
		discovery.CategoryWeb,
	}

	seen := map[string]string{}
	for _, name := range known {
		req := p.Category(name)
		if req.Count != 10 {
			t.Fatalf("Category(%q).Count = %d, want 10", name, req.Count)
		}
		for prev, instruction := range seen {
			if instruction == req.Instruction {
				t.Errorf("categories %q and %q share the same instruction", prev, name)
			}
		}
		seen[name] = req.Instruction
	}
}

func TestPrompterCategoryFallback(t *testing.T) {
	p := NewPrompter()

	fallback := p.Category("no-such-category")
	if fallback.Count != 10 {
		t.Fatalf("fallback count = %d, want 10", fallback.Count)
	}
	if !strings.Contains(fallback.Instruction, "trending movies") {
		t.Errorf("unknown category should use the trending-movies template, got %q", fallback.Instruction)
	}

	// Every unknown name maps to the same template.
	if other := p.Category("horror!!"); other.Instruction != fallback.Instruction {
		t.Error("unknown categories should share one fallback template")
	}
}

func TestPrompterSearch(t *testing.T) {
	req := NewPrompter().Search("sad movies")

	if req.Count != 8 {
		t.Fatalf("Search().Count = %d, want 8", req.Count)
	}
	if !strings.Contains(req.Instruction, `"sad movies"`) {
		t.Errorf("search instruction should embed the query, got %q", req.Instruction)
	}
	if !strings.Contains(req.Instruction, "reason") {
		t.Errorf("search instruction should request a reason per item, got %q", req.Instruction)
	}
}
