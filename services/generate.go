// CLAUDE:SUMMARY Built-in generate collaborator serving the component palette with freshly minted ids.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// GenerateRequest asks a generate collaborator for a component fragment.
type GenerateRequest struct {
	ComponentType string `json:"componentType"`
	Prompt        string `json:"prompt,omitempty"`
	ProjectID     string `json:"projectId,omitempty"`
}

// GenerateResult carries the produced markup fragment.
type GenerateResult struct {
	Markup string `json:"markup"`
}

// paletteTemplates maps component types to markup templates.
// Each template has exactly one %s slot for the minted component id.
var paletteTemplates = map[string]string{
	"hero": `<section component-id="%s" component-type="hero" class="hero">
  <h1>Your headline here</h1>
  <p>Introduce what this site is about in one sentence.</p>
  <a class="hero-cta" href="#">Get started</a>
</section>`,
	"navbar": `<nav component-id="%s" component-type="navbar" class="navbar">
  <span class="navbar-brand">Brand</span>
  <a href="#">Home</a>
  <a href="#">About</a>
  <a href="#">Contact</a>
</nav>`,
	"text": `<section component-id="%s" component-type="text" class="text-block">
  <p>Write your content here. Double-click to edit.</p>
</section>`,
	"image": `<figure component-id="%s" component-type="image" class="image-block">
  <img src="https://placehold.co/960x540" alt="Placeholder image">
  <figcaption>Image caption</figcaption>
</figure>`,
	"gallery": `<section component-id="%s" component-type="gallery" class="gallery">
  <img src="https://placehold.co/400x300" alt="Gallery item one">
  <img src="https://placehold.co/400x300" alt="Gallery item two">
  <img src="https://placehold.co/400x300" alt="Gallery item three">
</section>`,
	"cta": `<section component-id="%s" component-type="cta" class="cta">
  <h2>Ready to get started?</h2>
  <a class="cta-button" href="#">Contact us</a>
</section>`,
	"form": `<form component-id="%s" component-type="form" class="contact-form">
  <label for="name">Name</label>
  <input type="text" name="name" placeholder="Your name">
  <label for="email">Email</label>
  <input type="email" name="email" placeholder="you@example.com">
  <label for="message">Message</label>
  <textarea name="message" rows="4" placeholder="How can we help?"></textarea>
  <button type="submit">Send</button>
</form>`,
	"footer": `<footer component-id="%s" component-type="footer" class="footer">
  <p>&copy; 2026 Your Company. All rights reserved.</p>
</footer>`,
	"container": `<div component-id="%s" component-type="container" class="container"></div>`,
}

// PaletteTypes lists the component types the built-in generator understands.
func PaletteTypes() []string {
	types := make([]string, 0, len(paletteTemplates))
	for k := range paletteTemplates {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// DefaultGenerateHandler returns the built-in local generate collaborator.
// It serves the component palette without any external service: each known
// component type maps to a static fragment with a freshly minted component id.
// Unknown types fall back to an empty container.
func DefaultGenerateHandler(newID func() string) Handler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req GenerateRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("generate: decode request: %w", err)
		}
		tpl, ok := paletteTemplates[req.ComponentType]
		if !ok {
			tpl = paletteTemplates["container"]
		}
		res := GenerateResult{Markup: fmt.Sprintf(tpl, newID())}
		return json.Marshal(res)
	}
}
