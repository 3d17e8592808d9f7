package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	interviewsCmd := &cobra.Command{Use: "interviews", Short: "Interview operations"}

	// start
	var persona, session string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start an interview for a persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			if persona == "" {
				return fmt.Errorf("--persona required")
			}
			url := fmt.Sprintf("%s/api/personas/%s/interviews", apiFlag, persona)
			data, err := doPostJSON(url, map[string]interface{}{"sessionType": session})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	startCmd.Flags().StringVarP(&persona, "persona", "p", "", "Persona ID (required)")
	startCmd.Flags().StringVarP(&session, "session", "s", "initial", "Session type (initial, followup, topical)")
	interviewsCmd.AddCommand(startCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get INTERVIEW_ID",
		Short: "Get interview state and the current question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/interviews/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	interviewsCmd.AddCommand(getCmd)

	// answer
	var question, answer string
	var media []string
	answerCmd := &cobra.Command{
		Use:   "answer INTERVIEW_ID",
		Short: "Answer the current question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" || answer == "" {
				return fmt.Errorf("--question and --text required")
			}
			payload := map[string]interface{}{
				"questionId": question,
				"answerText": answer,
			}
			if len(media) > 0 {
				payload["mediaRefs"] = media
			}
			url := fmt.Sprintf("%s/api/interviews/%s/answers", apiFlag, args[0])
			data, err := doPostJSON(url, payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	answerCmd.Flags().StringVarP(&question, "question", "q", "", "Question ID (required)")
	answerCmd.Flags().StringVarP(&answer, "text", "t", "", "Answer text (required)")
	answerCmd.Flags().StringSliceVarP(&media, "media", "m", nil, "Media reference handles")
	interviewsCmd.AddCommand(answerCmd)

	// abandon
	abandonCmd := &cobra.Command{
		Use:   "abandon INTERVIEW_ID",
		Short: "Abandon an in-progress interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/interviews/%s/abandon", apiFlag, args[0])
			data, err := doPostJSON(url, map[string]interface{}{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	interviewsCmd.AddCommand(abandonCmd)

	// questions
	questionsCmd := &cobra.Command{
		Use:   "questions SESSION_TYPE",
		Short: "List the question bank for a session type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/questions/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	interviewsCmd.AddCommand(questionsCmd)

	rootCmd.AddCommand(interviewsCmd)
}
