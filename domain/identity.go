package domain

import (
	"cmp"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
)

// identityDelimiter separates rendered references in the fingerprint input.
const identityDelimiter = ";"

// Fingerprint computes the content identity of a set of resolved references.
//
// References are sorted by repository, then ref, then image before hashing, so the
// result does not depend on input order. Each reference contributes
// "repository:ref:image" and the rendered references are joined with ";". The digest is
// SHA-256, rendered as 64 lowercase hex characters.
func Fingerprint(refs []ResolvedReference) string {
	return digest.SHA256.FromString(canonical(refs)).Encoded()
}

// SameReferences reports whether a and b hold the same references, ignoring order.
// Duplicates are significant: {a, a} is not the same set as {a}.
func SameReferences(a, b []ResolvedReference) bool {
	if len(a) != len(b) {
		return false
	}
	return canonical(a) == canonical(b)
}

func canonical(refs []ResolvedReference) string {
	sorted := slices.Clone(refs)
	slices.SortFunc(sorted, compareReferences)

	parts := make([]string, len(sorted))
	for i, ref := range sorted {
		parts[i] = ref.String()
	}
	return strings.Join(parts, identityDelimiter)
}

func compareReferences(a, b ResolvedReference) int {
	return cmp.Or(
		cmp.Compare(a.Repository, b.Repository),
		cmp.Compare(a.Ref, b.Ref),
		cmp.Compare(a.ImageURL, b.ImageURL),
	)
}
