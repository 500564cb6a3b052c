package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleReferences() []ResolvedReference {
	return []ResolvedReference{
		{Repository: "https://github.com/openshift/assisted-service", Ref: "v2.40.1"},
		{Repository: "https://github.com/kubernetes-sigs/cluster-api", Ref: "v1.9.5"},
		{
			Repository: "https://github.com/openshift/assisted-installer",
			Ref:        "0123abcd",
			ImageURL:   "quay.io/edge-infrastructure/assisted-installer:latest-0123abcd",
		},
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	refs := sampleReferences()
	want := Fingerprint(refs)

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, p := range permutations {
		reordered := []ResolvedReference{refs[p[0]], refs[p[1]], refs[p[2]]}
		assert.Equal(t, want, Fingerprint(reordered), "permutation %v", p)
	}
}

func TestFingerprint_Format(t *testing.T) {
	id := Fingerprint(sampleReferences())

	assert.Len(t, id, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", id)
}

func TestFingerprint_DoesNotMutateInput(t *testing.T) {
	refs := sampleReferences()
	before := append([]ResolvedReference(nil), refs...)

	Fingerprint(refs)

	assert.Equal(t, before, refs)
}

func TestFingerprint_DuplicateRepositoryNotCollapsed(t *testing.T) {
	repo := "https://github.com/openshift/assisted-service"
	a := ResolvedReference{Repository: repo, Ref: "aaa"}
	b := ResolvedReference{Repository: repo, Ref: "bbb"}

	both := Fingerprint([]ResolvedReference{a, b})

	assert.NotEqual(t, both, Fingerprint([]ResolvedReference{a}))
	assert.NotEqual(t, both, Fingerprint([]ResolvedReference{b}))
	assert.Equal(t, both, Fingerprint([]ResolvedReference{b, a}))
}

func TestFingerprint_ImageContributes(t *testing.T) {
	plain := []ResolvedReference{{Repository: "r", Ref: "sha"}}
	withImage := []ResolvedReference{{Repository: "r", Ref: "sha", ImageURL: "quay.io/x:latest-sha"}}

	assert.NotEqual(t, Fingerprint(plain), Fingerprint(withImage))
}

func TestSameReferences(t *testing.T) {
	refs := sampleReferences()
	reversed := []ResolvedReference{refs[2], refs[1], refs[0]}

	tests := []struct {
		name string
		a, b []ResolvedReference
		want bool
	}{
		{name: "same order", a: refs, b: refs, want: true},
		{name: "reordered", a: refs, b: reversed, want: true},
		{name: "subset", a: refs, b: refs[:2], want: false},
		{name: "different ref", a: refs[:1], b: []ResolvedReference{{Repository: refs[0].Repository, Ref: "v0"}}, want: false},
		{name: "duplicates are counted", a: []ResolvedReference{refs[0], refs[0]}, b: []ResolvedReference{refs[0], refs[1]}, want: false},
		{name: "both empty", a: nil, b: []ResolvedReference{}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameReferences(tt.a, tt.b))
		})
	}
}
