package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	contextCmd := &cobra.Command{Use: "context", Short: "Context assembly operations"}

	var requester string
	var depth, maxEntries int
	assembleCmd := &cobra.Command{
		Use:   "assemble PERSONA_ID",
		Short: "Assemble a disclosure-safe context for a requester",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if requester == "" {
				return fmt.Errorf("--requester required")
			}
			payload := map[string]interface{}{
				"requesterUserId":  requester,
				"interactionDepth": depth,
			}
			if maxEntries > 0 {
				payload["maxEntries"] = maxEntries
			}
			url := fmt.Sprintf("%s/api/personas/%s/context", apiFlag, args[0])
			data, err := doPostJSON(url, payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	assembleCmd.Flags().StringVarP(&requester, "requester", "r", "", "Requesting user ID (required)")
	assembleCmd.Flags().IntVarP(&depth, "depth", "d", 0, "Current interaction depth")
	assembleCmd.Flags().IntVarP(&maxEntries, "max", "m", 0, "Max entries in the context")
	contextCmd.AddCommand(assembleCmd)

	// connections
	var rel string
	connectCmd := &cobra.Command{
		Use:   "connect PERSONA_ID REQUESTER_USER_ID",
		Short: "Record the requester's relationship to a persona",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/personas/%s/connections/%s", apiFlag, args[0], args[1])
			data, err := doPutJSON(url, map[string]interface{}{"relationship": rel})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	connectCmd.Flags().StringVarP(&rel, "relationship", "r", "none", "Relationship (none, friend, follower, subscriber, blocked)")
	contextCmd.AddCommand(connectCmd)

	rootCmd.AddCommand(contextCmd)
}
