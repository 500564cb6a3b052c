package testrun

import (
	"maps"
	"slices"
	"strings"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/hosting"
)

// EnvTable maps resolved references to the environment variables the test playbook reads.
//
// Repository bindings are keyed by "org/repo" and export the reference's Ref. Image
// bindings are keyed by the image name without tag and export the full ImageURL.
// Repository bindings take precedence when both match.
type EnvTable struct {
	Repositories map[string]string
	Images       map[string]string
}

// DefaultEnvTable returns the bindings of the assisted-installer test playbook.
func DefaultEnvTable() EnvTable {
	return EnvTable{
		Repositories: map[string]string{
			"kubernetes-sigs/cluster-api":           "CAPI_VERSION",
			"metal3-io/cluster-api-provider-metal3": "CAPM3_VERSION",
		},
		Images: map[string]string{
			"quay.io/edge-infrastructure/assisted-service":              "ASSISTED_SERVICE_IMAGE",
			"quay.io/edge-infrastructure/assisted-image-service":        "ASSISTED_IMAGE_SERVICE_IMAGE",
			"quay.io/edge-infrastructure/assisted-installer-agent":      "ASSISTED_INSTALLER_AGENT_IMAGE",
			"quay.io/edge-infrastructure/assisted-installer-controller": "ASSISTED_INSTALLER_CONTROLLER_IMAGE",
			"quay.io/edge-infrastructure/assisted-installer":            "ASSISTED_INSTALLER_IMAGE",
		},
	}
}

// Skip is a reference that no binding matched.
type Skip struct {
	Reference domain.ResolvedReference
	Reason    string
}

// Export is the environment derived from a snapshot.
type Export struct {
	Vars    map[string]string
	Skipped []Skip
}

// Names returns the exported variable names, sorted.
func (e Export) Names() []string {
	return slices.Sorted(maps.Keys(e.Vars))
}

// Export derives the environment for snapshot. Unmatched references are reported in
// Skipped and never fail the export.
func (t EnvTable) Export(snapshot domain.Snapshot) Export {
	out := Export{Vars: make(map[string]string)}

	for _, ref := range snapshot.Commits {
		if name, ok := t.Repositories[hosting.FullName(ref.Repository)]; ok {
			out.Vars[name] = ref.Ref
			continue
		}

		if ref.ImageURL == "" {
			out.Skipped = append(out.Skipped, Skip{Reference: ref, Reason: "no repository binding"})
			continue
		}

		if name, ok := t.Images[ImageName(ref.ImageURL)]; ok {
			out.Vars[name] = ref.ImageURL
			continue
		}
		out.Skipped = append(out.Skipped, Skip{Reference: ref, Reason: "no repository or image binding"})
	}

	return out
}

// ImageName strips the tag or digest from an image reference. A registry port is kept.
func ImageName(imageURL string) string {
	if i := strings.Index(imageURL, "@"); i >= 0 {
		imageURL = imageURL[:i]
	}
	slash := strings.LastIndex(imageURL, "/")
	if colon := strings.LastIndex(imageURL, ":"); colon > slash {
		return imageURL[:colon]
	}
	return imageURL
}
