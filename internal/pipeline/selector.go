package pipeline

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
)

// SelectionPolicy collapses a batch's artifacts into the one returned to the
// caller. ok is false when there is nothing to select.
type SelectionPolicy func(artifacts []Artifact) (selected Artifact, ok bool)

// SelectLast returns the artifact of the last processed file.
func SelectLast(artifacts []Artifact) (Artifact, bool) {
	if len(artifacts) == 0 {
		return "", false
	}
	return artifacts[len(artifacts)-1], true
}

// SelectAll returns every artifact in input order, one per line.
func SelectAll(artifacts []Artifact) (Artifact, bool) {
	if len(artifacts) == 0 {
		return "", false
	}
	parts := make([]string, len(artifacts))
	for i, a := range artifacts {
		parts[i] = string(a)
	}
	return Artifact(strings.Join(parts, "\n")), true
}

// PolicyByName maps RESULT_POLICY values to a policy.
func PolicyByName(name string) (SelectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", common.PolicyLast:
		return SelectLast, nil
	case common.PolicyAll:
		return SelectAll, nil
	default:
		return nil, fmt.Errorf("unknown result policy %q", name)
	}
}
