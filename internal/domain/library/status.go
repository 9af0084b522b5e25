package library

// VersionStatus is the publication lifecycle state of a clause or template
// version. Content is immutable from creation; only the status (and the
// fields its transition whitelists) ever changes.
type VersionStatus string

const (
	StatusDraft      VersionStatus = "draft"
	StatusReview     VersionStatus = "review"
	StatusApproved   VersionStatus = "approved"
	StatusPublished  VersionStatus = "published"
	StatusDeprecated VersionStatus = "deprecated"
)

func (s VersionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusPublished, StatusDeprecated:
		return true
	}
	return false
}
