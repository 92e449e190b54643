package pipeline

import (
	"fmt"
	"strings"

	"github.com/kodecks/kodeship/src/config"
)

// Event is the repository event that started a run.
type Event string

const (
	EventPush        Event = "push"
	EventPullRequest Event = "pull_request"
)

// Ref types.
const (
	RefBranch = "branch"
	RefTag    = "tag"
)

// Trigger describes what started the current run.
type Trigger struct {
	Event   Event
	Ref     string // branch or tag name; the release key
	RefType string // branch or tag
	BaseRef string // target branch of a pull request
}

func (t Trigger) String() string {
	if t.Event == EventPullRequest {
		return fmt.Sprintf("%s %s → %s", t.Event, t.Ref, t.BaseRef)
	}
	return fmt.Sprintf("%s %s %s", t.Event, t.RefType, t.Ref)
}

// DetectTrigger reads the trigger from GitHub Actions variables, falling
// back to GitLab's. getenv is os.Getenv in production.
func DetectTrigger(getenv func(string) string) (Trigger, error) {
	t := Trigger{}

	switch ev := getenv("GITHUB_EVENT_NAME"); ev {
	case "push":
		t.Event = EventPush
	case "pull_request", "pull_request_target":
		t.Event = EventPullRequest
	case "":
		// GitLab CI
		if getenv("CI_MERGE_REQUEST_IID") != "" {
			t.Event = EventPullRequest
		} else if getenv("CI_PIPELINE_SOURCE") == "push" {
			t.Event = EventPush
		}
	default:
		return t, fmt.Errorf("unsupported event %q", ev)
	}

	if t.Event == EventPullRequest {
		t.Ref = firstNonEmpty(getenv("GITHUB_HEAD_REF"), getenv("CI_MERGE_REQUEST_SOURCE_BRANCH_NAME"))
		t.BaseRef = firstNonEmpty(getenv("GITHUB_BASE_REF"), getenv("CI_MERGE_REQUEST_TARGET_BRANCH_NAME"))
		t.RefType = RefBranch
		return t, nil
	}

	if tag := getenv("CI_COMMIT_TAG"); tag != "" {
		t.Ref, t.RefType = tag, RefTag
	} else {
		t.Ref = firstNonEmpty(getenv("GITHUB_REF_NAME"), getenv("CI_COMMIT_BRANCH"))
		t.RefType = getenv("GITHUB_REF_TYPE")
		if t.RefType == "" {
			t.RefType = RefBranch
			if strings.HasPrefix(getenv("GITHUB_REF"), "refs/tags/") {
				t.RefType = RefTag
			}
		}
	}

	if t.Event == "" && t.Ref == "" {
		return t, fmt.Errorf("no CI event detected; pass --event and --ref")
	}
	return t, nil
}

// IsMainLinePush reports whether the trigger is a push to a main-line
// branch, or a push of a tag accepted by the tag filter.
func (t Trigger) IsMainLinePush(cfg *config.Config) bool {
	if t.Event != EventPush {
		return false
	}
	if t.RefType == RefTag {
		return config.MatchRef(cfg.Triggers.Tags, t.Ref, cfg.Policies.GitTags)
	}
	return config.MatchRef(cfg.Triggers.Branches, t.Ref, cfg.Policies.Branches)
}

// IsMainLineReview reports whether the trigger is a pull request targeting
// a main-line branch.
func (t Trigger) IsMainLineReview(cfg *config.Config) bool {
	return t.Event == EventPullRequest &&
		config.MatchRef(cfg.Triggers.Branches, t.BaseRef, cfg.Policies.Branches)
}

// JobsFor lists the jobs a trigger starts: release, web, gate.
func (t Trigger) JobsFor(cfg *config.Config) []string {
	switch {
	case t.IsMainLinePush(cfg):
		return []string{"release", "web", "gate"}
	case t.IsMainLineReview(cfg):
		return []string{"web", "gate"}
	default:
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
