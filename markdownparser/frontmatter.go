package markdownparser

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// parseFrontMatter splits off a leading YAML front matter block. It returns
// the metadata, the remaining body and the number of lines the front matter
// occupied before the body starts.
func parseFrontMatter(content string) (map[string]any, string, int, error) {
	// Check if content starts with front matter delimiter
	if !strings.HasPrefix(content, "---\n") {
		return make(map[string]any), content, 0, nil
	}

	// Find the closing delimiter
	endIndex := strings.Index(content[4:], "\n---")
	if endIndex == -1 {
		return nil, "", 0, fmt.Errorf("%w: missing closing ---", ErrInvalidFrontMatter)
	}

	endIndex += 4 // Adjust for the initial slice

	frontMatterContent := content[4:endIndex]
	remainingContent := content[endIndex+4:]

	var frontMatter map[string]any
	if err := yaml.Unmarshal([]byte(frontMatterContent), &frontMatter); err != nil {
		return nil, "", 0, fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
	}

	if frontMatter == nil {
		frontMatter = make(map[string]any)
	}

	return frontMatter, remainingContent, strings.Count(content[:endIndex+4], "\n"), nil
}
