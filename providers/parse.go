package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kavelar/moviemind/domains/discovery"
)

// parseContentItems decodes a backend response into content items. Schema
// constraints keep most responses clean JSON, but some models still wrap the
// payload in a markdown fence, so a failed first decode retries after
// stripping one.
func parseContentItems(raw string) ([]discovery.ContentItem, error) {
	var items []discovery.ContentItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		cleaned := stripMarkdownFence(raw)
		if err2 := json.Unmarshal([]byte(cleaned), &items); err2 != nil {
			return nil, fmt.Errorf("response is not a content item array: %w", err)
		}
	}
	return items, nil
}

func stripMarkdownFence(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
