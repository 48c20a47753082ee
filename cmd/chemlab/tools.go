package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mind-engage/chemlab/internal/grading"
	"github.com/mind-engage/chemlab/internal/turbidity"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <color>",
	Short: "Estimate turbidity from a colour (#rrggbb or rgba())",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd, turbidity.Analyze(args[0]))
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <test-color> <standard-color>",
	Short: "Compare a test solution against the standard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd, turbidity.CompareColors(args[0], args[1]))
	},
}

var gradeCmd = &cobra.Command{
	Use:   "grade <experiment-id> <answers.json>",
	Short: "Score an answer sheet against an experiment's quiz",
	Long:  `Score an answer sheet. The answers file is a JSON object keyed by question id, e.g. {"1": 0, "2": true}.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runGrade,
}

func runGrade(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("experiment id %q: %w", args[0], err)
	}
	cat, err := loadCatalog(cmd, os.Getenv("FIXTURES_FILE"))
	if err != nil {
		return err
	}
	q, err := cat.Quiz(id)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", args[1], err)
	}
	answers, err := grading.ParseAnswers(raw)
	if err != nil {
		return err
	}

	out := grading.Score(q.GradingQuestions(), answers)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUESTION\tANSWERED\tCORRECT\tPOINTS")
	for _, it := range out.Items {
		fmt.Fprintf(tw, "%d\t%t\t%t\t%d/%d\n", it.QuestionID, it.Answered, it.Correct, it.Points, it.MaxPoints)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	verdict := "FAIL"
	if out.Passed {
		verdict = "PASS"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "score %d%% (%d/%d) %s\n", out.Score, out.Earned, out.Max, verdict)
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
