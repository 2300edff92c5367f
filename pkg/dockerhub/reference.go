package dockerhub

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// DefaultNamespace is the namespace of official images.
const DefaultNamespace = "library"

// Docker Hub naming rules: lowercase alphanumerics with inner
// '.', '_' and '-' separators.
var refPartPattern = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*$`)

// RepositoryRef identifies a Docker Hub repository.
type RepositoryRef struct {
	Namespace string
	Name      string
}

// ParseRepositoryRef parses a "namespace/name" reference.
// A bare name refers to the default "library" namespace.
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	parts := strings.Split(s, "/")

	var ref RepositoryRef
	switch len(parts) {
	case 1:
		ref = RepositoryRef{Namespace: DefaultNamespace, Name: parts[0]}
	case 2:
		ref = RepositoryRef{Namespace: parts[0], Name: parts[1]}
	default:
		return RepositoryRef{}, errors.Wrapf(ErrInvalidReference, "%q", s)
	}

	if !refPartPattern.MatchString(ref.Namespace) || !refPartPattern.MatchString(ref.Name) {
		return RepositoryRef{}, errors.Wrapf(ErrInvalidReference, "%q", s)
	}

	return ref, nil
}

func (r RepositoryRef) String() string {
	return fmt.Sprintf("%s/%s", r.Namespace, r.Name)
}
