// CLAUDE:SUMMARY Page-to-markdown conversion and the built-in offline recommend collaborator.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// RecommendRequest asks a recommend collaborator for content suggestions.
// Markdown is the page content converted via PageMarkdown so remote
// collaborators never need to parse builder markup.
type RecommendRequest struct {
	ProjectID string `json:"projectId,omitempty"`
	PageID    string `json:"pageId,omitempty"`
	Markdown  string `json:"markdown"`
}

// Suggestion is a single recommendation for the page author.
type Suggestion struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// RecommendResult carries the suggestions for one page.
type RecommendResult struct {
	Suggestions []Suggestion `json:"suggestions"`
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// PageMarkdown converts page HTML to structured markdown.
// Returns an empty string for empty input.
func PageMarkdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	md, err := mdConverter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("recommend: convert page: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// DefaultRecommendHandler returns the built-in offline recommend collaborator.
// It inspects the markdown rendition of a page and flags common gaps. A
// remote collaborator registered under the same service name replaces it
// wholesale, so the heuristics here are deliberately cheap.
func DefaultRecommendHandler() Handler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req RecommendRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("recommend: decode request: %w", err)
		}
		res := RecommendResult{Suggestions: inspectMarkdown(req.Markdown)}
		return json.Marshal(res)
	}
}

func inspectMarkdown(md string) []Suggestion {
	var out []Suggestion
	words := len(strings.Fields(md))
	images := strings.Count(md, "![")
	links := strings.Count(md, "](") - images

	if !hasHeading(md) {
		out = append(out, Suggestion{
			Title:  "Add a headline",
			Detail: "The page has no heading. A hero or heading component gives visitors an anchor.",
		})
	}
	if words < 50 {
		out = append(out, Suggestion{
			Title:  "Thin content",
			Detail: fmt.Sprintf("Only %d words on this page. Consider adding a text component with more detail.", words),
		})
	}
	if images > 0 && strings.Contains(md, "![](") {
		out = append(out, Suggestion{
			Title:  "Missing image descriptions",
			Detail: "Some images have no alt text. Describe them for accessibility and search engines.",
		})
	}
	if links == 0 {
		out = append(out, Suggestion{
			Title:  "No links",
			Detail: "The page links nowhere. Add a navigation bar or a call-to-action button.",
		})
	}
	if words > 1200 {
		out = append(out, Suggestion{
			Title:  "Long page",
			Detail: "This page is getting long. Splitting it into several pages can improve readability.",
		})
	}
	return out
}

func hasHeading(md string) bool {
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			return true
		}
	}
	return false
}
