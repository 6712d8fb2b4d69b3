package assets

import (
	"errors"
	"slices"
)

// AssetResolver layers a user templates directory over the built-ins. A
// template missing from the directory is served from the embedded set.
type AssetResolver struct {
	custom   *FilesystemLoader // nil without a templates directory
	embedded *EmbeddedLoader
}

// NewAssetResolver returns a resolver over dir. An empty dir serves the
// built-ins only; a dir that cannot be opened is an error.
func NewAssetResolver(dir string) (*AssetResolver, error) {
	r := &AssetResolver{embedded: NewEmbeddedLoader()}
	if dir == "" {
		return r, nil
	}
	custom, err := NewFilesystemLoader(dir)
	if err != nil {
		return nil, err
	}
	r.custom = custom
	return r, nil
}

// LoadTemplate prefers the templates directory. Only ErrTemplateNotFound
// falls through to the built-ins; invalid names and read errors do not.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	if r.custom != nil {
		content, err := r.custom.LoadTemplate(name)
		if !errors.Is(err, ErrTemplateNotFound) {
			return content, err
		}
	}
	return r.embedded.LoadTemplate(name)
}

// Names lists every template LoadTemplate can serve, sorted and deduplicated.
func (r *AssetResolver) Names() []string {
	names := r.embedded.Names()
	if r.custom != nil {
		names = append(names, r.custom.Names()...)
		slices.Sort(names)
		names = slices.Compact(names)
	}
	return names
}

// HasCustomLoader reports whether a templates directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ AssetLoader = (*AssetResolver)(nil)
