package posterkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxSubjectLength caps the subject segment of artifact filenames, in runes.
const MaxSubjectLength = 50

// Deliverer hands a finished artifact to its destination under name.
type Deliverer interface {
	Deliver(ctx context.Context, name string, art *Artifact) error
}

// Compile-time interface checks
var (
	_ Deliverer = DirDeliverer{}
	_ Deliverer = (*AzureDeliverer)(nil)
)

// ArtifactFilename builds "{subject}_{variant}_{suffix}.{ext}". The subject
// is truncated to MaxSubjectLength runes; nothing is escaped.
func ArtifactFilename(subject, variant, suffix string, format Format) string {
	if r := []rune(subject); len(r) > MaxSubjectLength {
		subject = string(r[:MaxSubjectLength])
	}
	return subject + "_" + variant + "_" + suffix + "." + format.Extension()
}

// DirDeliverer writes artifacts into a local directory, creating it if
// needed. Names that would escape the directory are rejected.
type DirDeliverer struct {
	Dir string
}

// Deliver writes the artifact bytes to Dir/name.
func (d DirDeliverer) Deliver(ctx context.Context, name string, art *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateArtifactName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o750); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrDeliver, d.Dir, err)
	}
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, art.Data, 0o644); err != nil { // #nosec G306 -- artifacts are meant to be shared
		return fmt.Errorf("%w: writing %s: %v", ErrDeliver, path, err)
	}
	return nil
}

// validateNamePart rejects a filename segment (subject, variant or suffix)
// that would split the artifact name into path elements.
func validateNamePart(field, part string) error {
	if strings.ContainsAny(part, "/\\\x00") {
		return fmt.Errorf("%w: %s %q contains a path separator", ErrInvalidArtifactName, field, part)
	}
	return nil
}

// validateArtifactName rejects names that are not a single path element.
func validateArtifactName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidArtifactName, name)
	}
	return nil
}
