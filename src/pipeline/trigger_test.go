package pipeline

import (
	"testing"

	"github.com/kodecks/kodeship/src/config"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDetectTrigger(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Trigger
	}{
		{
			name: "github branch push",
			env:  map[string]string{"GITHUB_EVENT_NAME": "push", "GITHUB_REF_NAME": "main", "GITHUB_REF_TYPE": "branch"},
			want: Trigger{Event: EventPush, Ref: "main", RefType: RefBranch},
		},
		{
			name: "github tag push",
			env:  map[string]string{"GITHUB_EVENT_NAME": "push", "GITHUB_REF_NAME": "v1.2.3", "GITHUB_REF": "refs/tags/v1.2.3"},
			want: Trigger{Event: EventPush, Ref: "v1.2.3", RefType: RefTag},
		},
		{
			name: "github pull request",
			env:  map[string]string{"GITHUB_EVENT_NAME": "pull_request", "GITHUB_HEAD_REF": "feature/x", "GITHUB_BASE_REF": "main"},
			want: Trigger{Event: EventPullRequest, Ref: "feature/x", RefType: RefBranch, BaseRef: "main"},
		},
		{
			name: "gitlab merge request",
			env:  map[string]string{"CI_MERGE_REQUEST_IID": "7", "CI_MERGE_REQUEST_SOURCE_BRANCH_NAME": "fix", "CI_MERGE_REQUEST_TARGET_BRANCH_NAME": "main"},
			want: Trigger{Event: EventPullRequest, Ref: "fix", RefType: RefBranch, BaseRef: "main"},
		},
		{
			name: "gitlab tag",
			env:  map[string]string{"CI_PIPELINE_SOURCE": "push", "CI_COMMIT_TAG": "v2.0.0"},
			want: Trigger{Event: EventPush, Ref: "v2.0.0", RefType: RefTag},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectTrigger(env(tt.env))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetectTriggerErrors(t *testing.T) {
	if _, err := DetectTrigger(env(map[string]string{"GITHUB_EVENT_NAME": "schedule"})); err == nil {
		t.Error("expected error for unsupported event")
	}
	if _, err := DetectTrigger(env(nil)); err == nil {
		t.Error("expected error outside CI")
	}
}

func TestJobsFor(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name    string
		trigger Trigger
		want    []string
	}{
		{"main push", Trigger{Event: EventPush, Ref: "main", RefType: RefBranch}, []string{"release", "web", "gate"}},
		{"tag push", Trigger{Event: EventPush, Ref: "v1.2.3", RefType: RefTag}, []string{"release", "web", "gate"}},
		{"feature push", Trigger{Event: EventPush, Ref: "feature", RefType: RefBranch}, nil},
		{"pr to main", Trigger{Event: EventPullRequest, Ref: "feature", BaseRef: "main"}, []string{"web", "gate"}},
		{"pr elsewhere", Trigger{Event: EventPullRequest, Ref: "feature", BaseRef: "develop"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.trigger.JobsFor(cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
