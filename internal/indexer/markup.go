package indexer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy     *bluemonday.Policy
	stripPolicyOnce sync.Once
)

// PlainText reduces a storage-format body to its visible text.
// Every element is dropped, entities are decoded and whitespace is collapsed
// to single spaces, so adjacent blocks like <p>a</p><p>b</p> stay two words.
func PlainText(storage string) string {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
		stripPolicy.AddSpaceWhenStrippingTag(true)
	})

	text := html.UnescapeString(stripPolicy.Sanitize(storage))
	return strings.Join(strings.Fields(text), " ")
}
