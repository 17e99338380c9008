package domain

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
)

// DefaultRuleID labels findings whose analyzer did not report a rule.
const DefaultRuleID = "review"

// PullRequestRef identifies the pull request a webhook event targets.
type PullRequestRef struct {
	Number int `json:"number"`
}

// WebhookEvent is the recognized shape of an inbound hosting-platform event.
// Events without a pull_request member are accepted and ignored.
type WebhookEvent struct {
	Action      string          `json:"action,omitempty"`
	PullRequest *PullRequestRef `json:"pull_request,omitempty"`
}

// Commit is one revision within a pull request.
type Commit struct {
	SHA string
}

// ChangedFile captures one file touched by a commit.
// Patch is empty for binary files and rename-only entries.
type ChangedFile struct {
	Filename string
	Status   string
	Patch    string
}

// Finding is a single issue reported by an analyzer, anchored to a line
// in the post-change version of the file.
type Finding struct {
	RuleID  string `json:"ruleId"`
	Message string `json:"message"`
	Line    int    `json:"line"`
}

// NewFinding constructs a Finding, substituting DefaultRuleID when the
// analyzer did not name a rule.
func NewFinding(ruleID, message string, line int) Finding {
	if ruleID == "" {
		ruleID = DefaultRuleID
	}
	return Finding{
		RuleID:  ruleID,
		Message: message,
		Line:    line,
	}
}

// Comment is the unit submitted to the hosting platform: an inline review
// comment anchored to a diff position.
type Comment struct {
	PullNumber int
	CommitSHA  string
	Path       string
	Position   int
	Body       string
}
