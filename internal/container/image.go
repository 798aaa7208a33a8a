package container

import (
	"fmt"

	"github.com/distribution/reference"
)

const defaultTag = "latest"

// ImageRef combines an image name and tag into a validated reference in the
// short form the docker CLI prints (nwchemorg/nwchem-qc:latest). An empty tag
// means latest; a tag or digest already present on name is replaced.
func ImageRef(name, tag string) (string, error) {
	if tag == "" {
		tag = defaultTag
	}

	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return "", fmt.Errorf("invalid image name %q: %w", name, err)
	}

	tagged, err := reference.WithTag(reference.TrimNamed(named), tag)
	if err != nil {
		return "", fmt.Errorf("invalid image tag %q: %w", tag, err)
	}

	return reference.FamiliarString(tagged), nil
}
