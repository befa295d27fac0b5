package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/courseflow/internal/domain/batch"
)

// EnrolledCourseRepository caches each user's enrolled courses
type EnrolledCourseRepository struct {
	db *DB
}

// NewEnrolledCourseRepository creates a new EnrolledCourseRepository
func NewEnrolledCourseRepository(db *DB) *EnrolledCourseRepository {
	return &EnrolledCourseRepository{db: db}
}

// SetEnrolled replaces the cached enrollments of a user
func (r *EnrolledCourseRepository) SetEnrolled(ctx context.Context, userID string, courses []batch.EnrolledCourse) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrolled_courses WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear enrolled courses: %w", err)
	}

	query := `
		INSERT INTO enrolled_courses (user_id, content_id, course_id, batch_id, batch, completion, pkg_version, refreshed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, content_id) DO UPDATE SET
			course_id = excluded.course_id,
			batch_id = excluded.batch_id,
			batch = excluded.batch,
			completion = excluded.completion,
			pkg_version = excluded.pkg_version,
			refreshed_at = excluded.refreshed_at
	`
	now := time.Now().UTC()
	for _, course := range courses {
		batchJSON, err := json.Marshal(course.Batch)
		if err != nil {
			return fmt.Errorf("failed to encode batch: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			userID,
			course.ContentID,
			course.CourseID,
			course.BatchID,
			string(batchJSON),
			course.CompletionPercentage,
			course.PackageVersion,
			now,
		); err != nil {
			return fmt.Errorf("failed to insert enrolled course: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enrolled courses: %w", err)
	}
	return nil
}

// ListEnrolled returns the cached enrollments of a user
func (r *EnrolledCourseRepository) ListEnrolled(ctx context.Context, userID string) ([]batch.EnrolledCourse, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT content_id, course_id, batch_id, batch, completion, pkg_version
		FROM enrolled_courses
		WHERE user_id = ?
		ORDER BY content_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	defer rows.Close()

	courses := []batch.EnrolledCourse{}
	for rows.Next() {
		var (
			course    batch.EnrolledCourse
			batchJSON string
		)
		if err := rows.Scan(
			&course.ContentID,
			&course.CourseID,
			&course.BatchID,
			&batchJSON,
			&course.CompletionPercentage,
			&course.PackageVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enrolled course: %w", err)
		}
		if err := json.Unmarshal([]byte(batchJSON), &course.Batch); err != nil {
			return nil, fmt.Errorf("failed to decode batch: %w", err)
		}
		courses = append(courses, course)
	}

	return courses, rows.Err()
}
