package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/langlyai/langly/internal/content"
	"github.com/langlyai/langly/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Record and show learner progress",
}

var progressCompleteCmd = &cobra.Command{
	Use:   "complete <user> <level> <day>",
	Short: "Mark a lesson as completed by a learner",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, day, err := parseLessonKey(args[1], args[2])
		if err != nil {
			return err
		}
		score, _ := cmd.Flags().GetInt("score")
		accuracy, _ := cmd.Flags().GetInt("accuracy")
		seconds, _ := cmd.Flags().GetInt("time")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		upd := store.ProgressUpdate{
			UserID:        args[0],
			Level:         string(level),
			DayNumber:     day,
			Score:         score,
			Accuracy:      accuracy,
			TimeSpentSecs: seconds,
		}
		if rec, err := s.LessonRepo().Get(cmd.Context(), string(level), day); err == nil && rec != nil {
			upd.LessonID = rec.ID
		}

		entry, err := s.ProgressRepo().Complete(cmd.Context(), upd)
		if err != nil {
			return err
		}
		appLog.Info("lesson completed", "user_id", entry.UserID, "level", entry.Level, "day", entry.DayNumber)
		fmt.Fprintf(cmd.OutOrStdout(), "Completed %s day %d (score %d, accuracy %d%%)\n",
			entry.Level, entry.DayNumber, entry.Score, entry.Accuracy)
		return nil
	},
}

var progressListCmd = &cobra.Command{
	Use:   "list <user>",
	Short: "List lessons a learner has completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var level string
		if raw, _ := cmd.Flags().GetString("level"); raw != "" {
			l, err := content.ParseLevel(raw)
			if err != nil {
				return err
			}
			level = string(l)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.ProgressRepo().List(cmd.Context(), args[0], level)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No completed lessons.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-4s  %5s  %8s  %8s  %s\n", "Level", "Day", "Score", "Accuracy", "Time", "Completed")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, e := range entries {
			fmt.Fprintf(out, "%-5s  %-4d  %5d  %7d%%  %7ds  %s\n",
				e.Level, e.DayNumber, e.Score, e.Accuracy, e.TimeSpentSecs,
				e.CompletedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(out, "\n%d completed\n", len(entries))
		return nil
	},
}

func init() {
	progressCompleteCmd.Flags().Int("score", 0, "Score, 0-100")
	progressCompleteCmd.Flags().Int("accuracy", 0, "Accuracy percentage, 0-100")
	progressCompleteCmd.Flags().Int("time", 0, "Time spent in seconds")
	progressListCmd.Flags().String("level", "", "Only show one level")

	progressCmd.AddCommand(progressCompleteCmd)
	progressCmd.AddCommand(progressListCmd)
}
