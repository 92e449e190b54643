package release

import (
	"github.com/kodecks/kodeship/src/badge"
	"github.com/kodecks/kodeship/src/forge"
	"github.com/kodecks/kodeship/src/gitver"
)

// BadgeState names the release state a badge shows.
func BadgeState(rel *forge.Release) string {
	switch {
	case rel == nil:
		return "none"
	case rel.Draft:
		return "draft"
	case rel.Prerelease:
		return "prerelease"
	default:
		return "published"
	}
}

// Badge renders the "release | v1.2.3" badge for ref. A missing release
// shows "none" in grey; drafts and prereleases are yellow.
func Badge(e *badge.Engine, rel *forge.Release, ref string) string {
	state := BadgeState(rel)
	value := gitver.DisplayVersion(ref)
	switch state {
	case "none":
		value = "none"
	case "draft":
		value += " (draft)"
	}
	return e.Generate(badge.Badge{
		Label: "release",
		Value: value,
		Color: badge.StatusColor(state),
	})
}
