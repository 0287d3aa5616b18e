package extract

import (
	"encoding/json"
	"strings"

	"github.com/PortNumber53/cohost-tasks/backend/internal/metrics"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// rawDraft holds one array element before normalisation. Fields are untyped
// so a single mistyped value only affects its own draft.
type rawDraft struct {
	Title    any `json:"title"`
	Type     any `json:"type"`
	DueDate  any `json:"dueDate"`
	Priority any `json:"priority"`
	Notes    any `json:"notes"`
}

// ParseDrafts decodes model output into drafts. It tries the whole text as a
// JSON array, then the first array that decodes starting at any '[', then
// the span from the first '[' to the last ']'. When nothing decodes it
// returns an empty slice. It never fails.
//
// The second return value is the metrics outcome: ok, salvaged or empty.
func ParseDrafts(text string) ([]models.TaskDraft, string) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &elems); err == nil {
		return finish(elems, metrics.ExtractionOK)
	}

	for offset := 0; offset < len(text); {
		i := strings.IndexByte(text[offset:], '[')
		if i < 0 {
			break
		}
		start := offset + i
		elems = nil
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&elems); err == nil {
			if drafts := normalize(elems); len(drafts) > 0 {
				return drafts, metrics.ExtractionSalvaged
			}
		}
		offset = start + 1
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		elems = nil
		if err := json.Unmarshal([]byte(text[start:end+1]), &elems); err == nil {
			return finish(elems, metrics.ExtractionSalvaged)
		}
	}

	return []models.TaskDraft{}, metrics.ExtractionEmpty
}

func finish(raw []json.RawMessage, outcome string) ([]models.TaskDraft, string) {
	drafts := normalize(raw)
	if len(drafts) == 0 {
		return drafts, metrics.ExtractionEmpty
	}
	return drafts, outcome
}

// normalize drops elements that are not objects or have no title, and coerces
// enum and date fields into range.
func normalize(raw []json.RawMessage) []models.TaskDraft {
	drafts := make([]models.TaskDraft, 0, len(raw))
	for _, elem := range raw {
		var r rawDraft
		if err := json.Unmarshal(elem, &r); err != nil {
			continue
		}

		title := strings.TrimSpace(asString(r.Title))
		if title == "" {
			continue
		}

		taskType := models.TaskType(strings.ToLower(strings.TrimSpace(asString(r.Type))))
		if !taskType.Valid() {
			taskType = models.TaskTypeCustom
		}

		priority := models.TaskPriority(strings.ToLower(strings.TrimSpace(asString(r.Priority))))
		if !priority.Valid() {
			priority = models.PriorityMedium
		}

		var due *string
		if raw := asString(r.DueDate); raw != "" {
			if d, err := models.ParseDate(raw); err == nil {
				s := d.String()
				due = &s
			}
		}

		drafts = append(drafts, models.TaskDraft{
			Title:    title,
			Type:     taskType,
			DueDate:  due,
			Priority: priority,
			Notes:    strings.TrimSpace(asString(r.Notes)),
		})
	}
	return drafts
}

// asString returns v when it is a JSON string and "" for any other type.
func asString(v any) string {
	s, _ := v.(string)
	return s
}
