package main

import (
	"context"
	"fmt"

	"github.com/rpggio/courseflow/internal/domain/account"
	"github.com/spf13/cobra"
)

var (
	keyDescription string
	keyOnboarded   bool
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage bearer tokens for the HTTP transport",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create <user-id>",
	Short: "Issue a token for a user and print it once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			issued, err := a.accounts.Issue(ctx, account.IssueRequest{
				UserID:              args[0],
				Description:         keyDescription,
				OnboardingCompleted: keyOnboarded,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), issued, nil)
		})
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List a user's tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			keys, err := a.accounts.List(ctx, args[0])
			return printResult(cmd.OutOrStdout(), keys, err)
		})
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Delete a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			if err := a.accounts.Revoke(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return nil
		})
	},
}

var apikeyOnboardCmd = &cobra.Command{
	Use:   "onboard <user-id>",
	Short: "Mark a user as past sign-in onboarding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			if err := a.accounts.CompleteOnboarding(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "onboarded %s\n", args[0])
			return nil
		})
	},
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect the local content store",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			entries, err := a.store.List(ctx)
			return printResult(cmd.OutOrStdout(), entries, err)
		})
	},
}

var contentRemoveCmd = &cobra.Command{
	Use:   "remove <content-id>",
	Short: "Delete imported content and its catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			if err := a.store.Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		})
	},
}

func init() {
	apikeyCreateCmd.Flags().StringVar(&keyDescription, "description", "", "what the token is for")
	apikeyCreateCmd.Flags().BoolVar(&keyOnboarded, "onboarding-complete", true, "whether the user has finished sign-in onboarding")
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyListCmd, apikeyRevokeCmd, apikeyOnboardCmd)

	contentCmd.AddCommand(contentListCmd, contentRemoveCmd)
}
