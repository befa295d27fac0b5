package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	versionFlag   float64
	layoutFlag    string
	routeFlag     string
	batchStatus   int
	batchCreator  string
	courseName    string
	courseCreator string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <content-id>",
	Short: "Open content, importing it first when the local copy is missing or stale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, func(ctx context.Context, h *mcp.Handler) (any, error) {
			return h.ResolveContent(ctx, mcp.ResolveContentParams{
				CurrentRoute:   routeFlag,
				ContentID:      args[0],
				PackageVersion: versionFlag,
			})
		})
	},
}

var openCmd = &cobra.Command{
	Use:   "open <course-id>",
	Short: "Handle a course card tap using the cached enrollments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			ctx, err := a.callContext(ctx)
			if err != nil {
				return err
			}
			var courses []batch.EnrolledCourse
			sess, err := a.session(ctx)
			if err != nil {
				return err
			}
			if sess != nil {
				if courses, err = a.enrolled.ListEnrolled(ctx, sess.UserID); err != nil {
					return fmt.Errorf("reading cached enrollments: %w", err)
				}
			}
			out, err := a.handler.OpenCourse(ctx, mcp.OpenCourseParams{
				CurrentRoute:    routeFlag,
				Card:            courseCard(args[0]),
				Layout:          layoutFlag,
				EnrolledCourses: courses,
				GuestUser:       sess == nil,
			})
			return printResult(cmd.OutOrStdout(), out, err)
		})
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches <course-id>",
	Short: "List the open batches of a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, func(ctx context.Context, h *mcp.Handler) (any, error) {
			return h.ListBatches(ctx, mcp.ListBatchesParams{
				CurrentRoute: routeFlag,
				Card:         courseCard(args[0]),
				Layout:       layoutFlag,
			})
		})
	},
}

var enrollCmd = &cobra.Command{
	Use:   "enroll <course-id> <batch-id>",
	Short: "Join a batch as the signed-in user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, func(ctx context.Context, h *mcp.Handler) (any, error) {
			course := deferredCourse(args[0])
			return h.Enroll(ctx, mcp.EnrollParams{
				CurrentRoute: routeFlag,
				Batch:        cliBatch(args[0], args[1]),
				CourseID:     args[0],
				PageID:       enrollment.PageCourseBatches,
				Object:       course.Object(),
			})
		})
	},
}

var deferCmd = &cobra.Command{
	Use:   "defer <course-id> <batch-id>",
	Short: "Store an enroll attempt to replay after sign-in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, func(ctx context.Context, h *mcp.Handler) (any, error) {
			return h.DeferEnrollment(ctx, mcp.DeferEnrollmentParams{
				Batch:  cliBatch(args[0], args[1]),
				Course: deferredCourse(args[0]),
			})
		})
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay this device's deferred enrollment for the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTool(cmd, func(ctx context.Context, h *mcp.Handler) (any, error) {
			return h.ReplayDeferred(ctx, mcp.ReplayDeferredParams{CurrentRoute: routeFlag})
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, openCmd, batchesCmd, enrollCmd, replayCmd} {
		c.Flags().StringVar(&routeFlag, "route", "", "route the host is showing")
	}
	resolveCmd.Flags().Float64Var(&versionFlag, "version", 0, "package version the course points to")
	for _, c := range []*cobra.Command{openCmd, batchesCmd} {
		c.Flags().StringVar(&layoutFlag, "layout", "", "card section, InProgress or default")
	}
	for _, c := range []*cobra.Command{enrollCmd, deferCmd} {
		c.Flags().IntVar(&batchStatus, "batch-status", int(batch.StatusNotStarted), "batch status, 0 not started or 1 in progress")
		c.Flags().StringVar(&batchCreator, "batch-created-by", "", "creator of the batch")
		c.Flags().StringVar(&courseName, "course-name", "", "course name")
		c.Flags().StringVar(&courseCreator, "course-created-by", "", "author of the course")
		c.Flags().Float64Var(&versionFlag, "version", 0, "course package version")
	}
}

// runTool wires the app, runs one handler call and prints its result.
func runTool(cmd *cobra.Command, call func(ctx context.Context, h *mcp.Handler) (any, error)) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		ctx, err := a.callContext(ctx)
		if err != nil {
			return err
		}
		out, err := call(ctx, a.handler)
		return printResult(cmd.OutOrStdout(), out, err)
	})
}

// printResult writes out as indented JSON. Partial results are printed before
// the error is returned.
func printResult(w io.Writer, out any, err error) error {
	if out != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(out); encErr != nil {
			fmt.Fprintln(os.Stderr, "encoding result:", encErr)
		}
	}
	if err != nil {
		return commandError(err)
	}
	return nil
}

func courseCard(courseID string) batch.Content {
	return batch.Content{Identifier: courseID, ContentID: courseID, PackageVersion: versionFlag}
}

func cliBatch(courseID, batchID string) batch.Batch {
	return batch.Batch{
		ID:        batchID,
		CourseID:  courseID,
		Status:    batch.Status(batchStatus),
		CreatedBy: batchCreator,
	}
}

func deferredCourse(courseID string) enrollment.DeferredCourse {
	return enrollment.DeferredCourse{
		Identifier:     courseID,
		Name:           courseName,
		CreatedBy:      courseCreator,
		PackageVersion: versionFlag,
	}
}
