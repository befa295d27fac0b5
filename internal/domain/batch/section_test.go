package batch_test

import (
	"testing"
	"time"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/notice"
	"github.com/stretchr/testify/require"
)

func TestEnrolledHint(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	course := batch.EnrolledCourse{
		CompletionPercentage: 40,
		Batch:                batch.Batch{EndDate: "2026-05-01"},
	}
	hint := batch.EnrolledHint(course, now)
	require.Equal(t, notice.CourseEndedOn, hint.Key)
	require.Equal(t, "01/05/2026", hint.Date)
	require.Equal(t, batch.ToneDanger, hint.Tone)

	course.Batch.EndDate = "2026-07-15"
	hint = batch.EnrolledHint(course, now)
	require.Equal(t, notice.CompleteBy, hint.Key)
	require.Equal(t, batch.ToneSecondary, hint.Tone)

	course.CompletionPercentage = 100
	require.False(t, batch.EnrolledHint(course, now).Visible())

	course.CompletionPercentage = 10
	course.Batch.EndDate = ""
	require.False(t, batch.EnrolledHint(course, now).Visible())
}

func TestCourseHint(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	hint := batch.CourseHint([]batch.Batch{{EnrollmentEndDate: "2026-06-10"}}, now)
	require.Equal(t, notice.LastDateToJoin, hint.Key)

	hint = batch.CourseHint([]batch.Batch{{EnrollmentEndDate: "2026-05-10"}}, now)
	require.Equal(t, notice.CourseEnded, hint.Key)

	require.False(t, batch.CourseHint([]batch.Batch{{}, {}}, now).Visible())
	require.False(t, batch.CourseHint(nil, now).Visible())
}

func TestSectionHint_Message(t *testing.T) {
	c, err := notice.Default()
	require.NoError(t, err)
	tr := c.Translator("en-US")

	hint := batch.SectionHint{Key: notice.CompleteBy, Date: "15/07/2026", Tone: batch.ToneSecondary}
	require.Equal(t, "Complete by 15/07/2026", hint.Message(tr))
	require.Empty(t, batch.SectionHint{}.Message(tr))
}
