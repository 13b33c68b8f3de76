package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newIntakeCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Drive the onboarding questionnaire directly",
	}

	begin := &cobra.Command{
		Use:   "begin",
		Short: "Start onboarding or show the current question",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			prompt, err := a.Engine.Start(cmd.Context(), userID(flags))
			if err != nil {
				return fmt.Errorf("begin intake: %w", err)
			}
			return emit(cmd.OutOrStdout(), flags, prompt, prompt.Text())
		},
	}

	advance := &cobra.Command{
		Use:   "advance <answer>",
		Short: "Answer the current onboarding question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Engine.Resume(cmd.Context(), userID(flags), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("advance intake: %w", err)
			}
			return emit(cmd.OutOrStdout(), flags, result, result.Text())
		},
	}

	cmd.AddCommand(begin, advance)
	return cmd
}
