// Package assets provides the built-in poster templates.
// Templates can be loaded from embedded files or custom filesystem paths.
package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadTemplate loads a built-in template by name using the default embedded loader.
// The name should not include the .html extension or path components.
// Returns ErrTemplateNotFound if the template does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// TemplateNames lists the built-in template names, sorted.
func TemplateNames() []string {
	return defaultLoader.Names()
}
