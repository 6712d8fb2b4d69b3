// Package assets provides the built-in poster templates and the optional
// user templates directory that overrides them.
//
// Built-ins (general, invitation, wechat) are embedded and written in the
// tagged dialect with a {{name}} placeholder for the variant.
//
// A templates directory is flat:
//
//	{dir}/
//	├── gala.html
//	└── wechat.html   (replaces the built-in wechat)
//
// AssetResolver serves the directory first and falls back to the built-ins
// on ErrTemplateNotFound. Names are restricted to [A-Za-z0-9_-], and files
// that resolve outside the directory through symlinks are refused.
package assets
