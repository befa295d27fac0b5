package batch

import (
	"strconv"
	"time"

	"github.com/rpggio/courseflow/internal/notice"
)

// Tone is the visual weight of a card hint.
type Tone string

const (
	ToneNone      Tone = ""
	ToneSecondary Tone = "secondary"
	ToneDanger    Tone = "danger"
)

// SectionHint is the date line shown under a course card.
type SectionHint struct {
	Key  notice.Key `json:"key,omitempty"`
	Date string     `json:"date,omitempty"`
	Tone Tone       `json:"tone,omitempty"`
}

// Visible reports whether the hint carries a message.
func (h SectionHint) Visible() bool {
	return h.Key != ""
}

// Message renders the hint with tr. Invisible hints render empty.
func (h SectionHint) Message(tr *notice.Translator) string {
	if !h.Visible() {
		return ""
	}
	return tr.Format(h.Key, map[string]string{"Date": h.Date})
}

// HintDateLayout is the display format of hint dates.
const HintDateLayout = "02/01/2006"

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// EnrolledHint returns the hint for an enrolled course card: unfinished
// courses with a batch end date say when they end or ended.
func EnrolledHint(course EnrolledCourse, now time.Time) SectionHint {
	if course.CompletionPercentage == 0 || course.CompletionPercentage >= 100 {
		return SectionHint{}
	}
	end, ok := parseDate(course.Batch.EndDate)
	if !ok {
		return SectionHint{}
	}
	if end.Before(now) {
		return SectionHint{Key: notice.CourseEndedOn, Date: end.Format(HintDateLayout), Tone: ToneDanger}
	}
	return SectionHint{Key: notice.CompleteBy, Date: end.Format(HintDateLayout), Tone: ToneSecondary}
}

// CourseHint returns the hint for a catalog course card. It only applies when
// the course has exactly one batch with an enrollment end date.
func CourseHint(batches []Batch, now time.Time) SectionHint {
	if len(batches) != 1 {
		return SectionHint{}
	}
	end, ok := parseDate(batches[0].EnrollmentEndDate)
	if !ok {
		return SectionHint{}
	}
	if end.Before(now) {
		return SectionHint{Key: notice.CourseEnded, Date: end.Format(HintDateLayout), Tone: ToneDanger}
	}
	return SectionHint{Key: notice.LastDateToJoin, Date: end.Format(HintDateLayout), Tone: ToneSecondary}
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	// Epoch milliseconds.
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}
