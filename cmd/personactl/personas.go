package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	personasCmd := &cobra.Command{Use: "personas", Short: "Persona operations"}

	// create
	var userId, kind, parent, name, description, privacy, guardRailsJSON, filterJSON string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a derived persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userId == "" || name == "" {
				return fmt.Errorf("--user and --name required")
			}
			payload := map[string]interface{}{
				"kind":         kind,
				"name":         name,
				"privacyLevel": privacy,
			}
			if parent != "" {
				payload["parentPersonaId"] = parent
			}
			if description != "" {
				payload["description"] = description
			}
			if guardRailsJSON != "" {
				var g map[string]interface{}
				if err := json.Unmarshal([]byte(guardRailsJSON), &g); err != nil {
					return fmt.Errorf("invalid --guard-rails JSON: %w", err)
				}
				payload["guardRails"] = g
			}
			if filterJSON != "" {
				var f map[string]interface{}
				if err := json.Unmarshal([]byte(filterJSON), &f); err != nil {
					return fmt.Errorf("invalid --content-filter JSON: %w", err)
				}
				payload["contentFilter"] = f
			}
			url := fmt.Sprintf("%s/api/users/%s/personas", apiFlag, userId)
			data, err := doPostJSON(url, payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&userId, "user", "u", "", "Owner user ID (required)")
	createCmd.Flags().StringVarP(&kind, "kind", "k", "child", "Persona kind (child, public, premium)")
	createCmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent persona ID (the owner's main persona)")
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Persona name (required)")
	createCmd.Flags().StringVarP(&description, "description", "d", "", "Persona description")
	createCmd.Flags().StringVar(&privacy, "privacy", "private", "Privacy level (private, friends, subscribers, public)")
	createCmd.Flags().StringVar(&guardRailsJSON, "guard-rails", "", "Guard rails as JSON")
	createCmd.Flags().StringVar(&filterJSON, "content-filter", "", "Content filter as JSON")
	personasCmd.AddCommand(createCmd)

	// list
	var listUser string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listUser == "" {
				return fmt.Errorf("--user required")
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/personas", apiFlag, listUser))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "Owner user ID (required)")
	personasCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get PERSONA_ID",
		Short: "Get persona by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/personas/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	personasCmd.AddCommand(getCmd)

	// delete
	var delUser string
	deleteCmd := &cobra.Command{
		Use:   "delete PERSONA_ID",
		Short: "Delete a derived persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if delUser == "" {
				return fmt.Errorf("--user required")
			}
			return doDelete(fmt.Sprintf("%s/api/users/%s/personas/%s", apiFlag, delUser, args[0]))
		},
	}
	deleteCmd.Flags().StringVarP(&delUser, "user", "u", "", "Owner user ID (required)")
	personasCmd.AddCommand(deleteCmd)

	// update
	var updUser, patchJSON string
	updateCmd := &cobra.Command{
		Use:   "update PERSONA_ID",
		Short: "Apply a partial update to a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if updUser == "" || patchJSON == "" {
				return fmt.Errorf("--user and --patch required")
			}
			var patch map[string]interface{}
			if err := json.Unmarshal([]byte(patchJSON), &patch); err != nil {
				return fmt.Errorf("invalid --patch JSON: %w", err)
			}
			url := fmt.Sprintf("%s/api/users/%s/personas/%s", apiFlag, updUser, args[0])
			data, err := doPatchJSON(url, patch)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&updUser, "user", "u", "", "Owner user ID (required)")
	updateCmd.Flags().StringVar(&patchJSON, "patch", "", "Patch body as JSON")
	personasCmd.AddCommand(updateCmd)

	// traits
	traitsCmd := &cobra.Command{
		Use:   "traits PERSONA_ID",
		Short: "List a persona's trait entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/personas/%s/traits", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	personasCmd.AddCommand(traitsCmd)

	rootCmd.AddCommand(personasCmd)
}
