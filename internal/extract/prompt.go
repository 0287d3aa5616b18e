package extract

import (
	"strings"
	"text/template"

	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

const (
	defaultListingName = "Unknown"
	defaultGuestName   = "Guest"
)

var promptTemplate = template.Must(template.New("extract").Parse(`You are an assistant for a short-term rental co-host. Read the guest conversation below and list the concrete tasks the co-host needs to do.

Listing: {{.ListingName}}
Guest: {{.GuestName}}

Conversation:
{{.Conversation}}

Respond with ONLY a JSON array and no other text. Each element must be an object with these fields:
- "title": short imperative description of the task
- "type": one of {{.Types}}
- "dueDate": ISO calendar date "YYYY-MM-DD", or null when no date is implied
- "priority": one of "high", "medium", "low"
- "notes": extra context from the conversation, or an empty string

If nothing in the conversation requires action, respond with [].
`))

type promptData struct {
	ListingName  string
	GuestName    string
	Conversation string
	Types        string
}

// BuildPrompt renders the instruction sent to the model. The conversation is
// embedded verbatim.
func BuildPrompt(conversation, listingName, guestName string) string {
	if strings.TrimSpace(listingName) == "" {
		listingName = defaultListingName
	}
	if strings.TrimSpace(guestName) == "" {
		guestName = defaultGuestName
	}

	quoted := make([]string, 0, len(models.TaskTypes))
	for _, t := range models.TaskTypes {
		quoted = append(quoted, `"`+string(t)+`"`)
	}

	var b strings.Builder
	// The template is static and all fields are strings, so Execute cannot fail.
	_ = promptTemplate.Execute(&b, promptData{
		ListingName:  listingName,
		GuestName:    guestName,
		Conversation: conversation,
		Types:        strings.Join(quoted, ", "),
	})
	return b.String()
}
