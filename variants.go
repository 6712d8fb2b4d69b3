package posterkit

import (
	"html"
	"strings"

	"github.com/oklog/ulid/v2"
)

// DefaultToken is the placeholder replaced by each variant name.
const DefaultToken = "{{name}}"

// TaskSpec is one unit of batch work: a variant name and its resolved markup.
type TaskSpec struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Markup string `json:"markup"`
}

// ExpandVariants produces one TaskSpec per distinct, non-blank name by
// replacing every occurrence of token in template. Names are HTML-escaped
// before substitution; the raw name is kept in TaskSpec.Name. An empty
// token means DefaultToken.
func ExpandVariants(template, token string, names []string) []TaskSpec {
	if token == "" {
		token = DefaultToken
	}

	seen := make(map[string]bool, len(names))
	specs := make([]TaskSpec, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		specs = append(specs, TaskSpec{
			ID:     ulid.Make().String(),
			Name:   name,
			Markup: strings.ReplaceAll(template, token, html.EscapeString(name)),
		})
	}
	return specs
}
