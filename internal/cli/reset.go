package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Erase a user's profile, intake session and history without confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			id := userID(flags)
			if err := a.Store.DeleteTurns(ctx, id); err != nil {
				return fmt.Errorf("delete turns: %w", err)
			}
			if err := a.Store.DeleteSession(ctx, id); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			if err := a.Store.DeleteProfile(ctx, id); err != nil {
				return fmt.Errorf("delete profile: %w", err)
			}
			if err := a.Store.SetResetPending(ctx, id, false); err != nil {
				return fmt.Errorf("clear reset flag: %w", err)
			}
			return emit(cmd.OutOrStdout(), flags, map[string]string{"userId": id, "status": "reset"}, "reset "+id)
		},
	}
}

func newProfileCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the stored onboarding profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			id := userID(flags)
			profile, err := a.Store.GetProfile(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get profile: %w", err)
			}
			if profile == nil {
				return fmt.Errorf("no profile for %s", id)
			}
			text := fmt.Sprintf("%s (%s, %s) complete=%t", profile.Name, profile.Role, profile.Industry, profile.Complete)
			return emit(cmd.OutOrStdout(), flags, profile, text)
		},
	}
}
