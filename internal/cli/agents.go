package cli

import (
	"distribution-service/pkg/client"

	"github.com/spf13/cobra"
)

func (a *app) agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage the agent roster",
	}
	cmd.AddCommand(a.agentsListCmd(), a.agentsCreateCmd(), a.agentsDeleteCmd())
	return cmd
}

func (a *app) agentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents in distribution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agents, err := a.client().ListAgents(commandContext(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), agents)
		},
	}
}

func (a *app) agentsCreateCmd() *cobra.Command {
	var req client.AgentRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an agent to the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := a.client().CreateAgent(commandContext(cmd), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), agent)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "agent name")
	cmd.Flags().StringVar(&req.Email, "email", "", "agent email")
	cmd.Flags().StringVar(&req.MobileNumber, "mobile", "", "agent mobile number")
	cmd.Flags().StringVar(&req.Password, "password", "", "agent password (at least 6 characters)")
	for _, name := range []string{"name", "email", "mobile", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) agentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an agent; its distributed items are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUintArg(args[0], "agent id")
			if err != nil {
				return err
			}
			if err := a.client().DeleteAgent(commandContext(cmd), id); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]uint{"deleted": id})
		},
	}
}
