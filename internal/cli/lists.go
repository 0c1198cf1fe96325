package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a CSV, XLSX or XLS file and distribute it across all agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client().UploadFile(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (a *app) listsCmd() *cobra.Command {
	var (
		agentID uint
		search  string
	)
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show distributed items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client().Lists(commandContext(cmd), agentID, search)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().UintVar(&agentID, "agent", 0, "only items of this agent id")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive match on first name, phone or notes")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show item counts per agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := a.client().Summary(commandContext(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func (a *app) filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "Show uploaded files with their item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := a.client().Files(commandContext(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), files)
		},
	}
}

func (a *app) deleteFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-file <name>",
		Short: "Delete every item uploaded under an original file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client().DeleteFile(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (a *app) deleteItemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-item <id>",
		Short: "Delete a single distributed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUintArg(args[0], "item id")
			if err != nil {
				return err
			}
			if err := a.client().DeleteItem(commandContext(cmd), id); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]uint{"deleted": id})
		},
	}
}
