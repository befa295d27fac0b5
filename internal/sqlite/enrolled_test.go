package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/stretchr/testify/require"
)

func TestEnrolledCourseRepository_Replace(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewEnrolledCourseRepository(db)

	first := []batch.EnrolledCourse{
		{ContentID: "do_1", CourseID: "do_1", BatchID: "b1", Batch: batch.Batch{ID: "b1", Status: batch.StatusInProgress}},
		{ContentID: "do_2", CourseID: "do_2", BatchID: "b2", CompletionPercentage: 50},
	}
	require.NoError(t, repo.SetEnrolled(ctx, "U1", first))
	require.NoError(t, repo.SetEnrolled(ctx, "U2", first[:1]))

	courses, err := repo.ListEnrolled(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, batch.StatusInProgress, courses[0].Batch.Status)
	require.Equal(t, 50.0, courses[1].CompletionPercentage)

	require.NoError(t, repo.SetEnrolled(ctx, "U1", first[1:]))
	courses, err = repo.ListEnrolled(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "do_2", courses[0].ContentID)

	courses, err = repo.ListEnrolled(ctx, "U2")
	require.NoError(t, err)
	require.Len(t, courses, 1)

	courses, err = repo.ListEnrolled(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, courses)
}
