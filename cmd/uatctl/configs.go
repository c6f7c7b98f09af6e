package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/controlplane"
	"github.com/chimerakang/uat-go/resource"
	"github.com/chimerakang/uat-go/transport"
)

func addConfigCommandTo(parent *cobra.Command, a *app) {
	var pat string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manages UAT trust configurations in Cloud Manager.",
		Long: `Manages UAT trust configurations in Cloud Manager. Every subcommand first
logs in with a personal access token, taken from --pat or controlPlanePatSecret.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&pat, "pat", "", "Personal access token secret (default: controlPlanePatSecret from config).")

	login := func(ctx context.Context, cp *controlplane.Client) (string, error) {
		s, err := cp.LoginPAT(ctx, pat)
		if err != nil {
			return "", fmt.Errorf("personal access token login: %w", err)
		}
		return s.Token, nil
	}

	cmd.AddCommand(newConfigCreateCommand(a, login))
	cmd.AddCommand(newConfigListCommand(a, login))
	cmd.AddCommand(newConfigRevokeCommand(a, login))
	parent.AddCommand(cmd)
}

type patLogin func(ctx context.Context, cp *controlplane.Client) (string, error)

func newConfigCreateCommand(a *app, login patLogin) *cobra.Command {
	var (
		name          string
		resourceIDs   []string
		inventoryPath string
		sf            scopeFlags
	)
	cmd := &cobra.Command{
		Use:     "create",
		Example: "  uatctl config create --name my-uat --grant content:read --resource-id $TENANT_ID",
		Short:   "Registers the local public key as a UAT configuration.",
		Long: `Registers the local public key as a UAT configuration. Resource IDs come from
--resource-id, from the LUIDs of an --inventory file, or default to tenantId from
config. An existing configuration with the same name is reported but is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := sf.resolve()
			if err != nil {
				return err
			}
			if inventoryPath != "" {
				inv, err := readInventory(inventoryPath)
				if err != nil {
					return err
				}
				invScopes, err := inv.Scopes()
				if err != nil {
					return err
				}
				for _, s := range invScopes {
					if !scopes.Contains(s) {
						scopes = append(scopes, s)
					}
				}
				if resourceIDs == nil {
					resourceIDs = inv.ResourceIDs()
				}
			}

			cp := a.controlPlane()
			session, err := login(cmd.Context(), cp)
			if err != nil {
				return err
			}
			out, err := cp.Register(cmd.Context(), session, name, scopes.Strings(), resourceIDs)
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, out.Message)
			if err != nil && !uat.IsNonFatal(err) {
				if out.Exchange != nil {
					fmt.Fprintf(w, "reproduce with:\n%s\n", transport.Curl(out.Exchange))
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Configuration name (required).")
	cmd.Flags().StringSliceVar(&resourceIDs, "resource-id", nil, "Resource LUID the configuration applies to (repeatable).")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "YAML inventory of sites and resources to take LUIDs and scopes from.")
	sf.register(cmd)
	cmd.MarkFlagRequired("name")
	return cmd
}

func readInventory(path string) (*resource.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	return resource.ParseInventory(data)
}

func newConfigListCommand(a *app, login patLogin) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists UAT configurations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cp := a.controlPlane()
			session, err := login(cmd.Context(), cp)
			if err != nil {
				return err
			}
			configs, err := cp.ListConfigurations(cmd.Context(), session)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), table.Row{"ID", "NAME", "ISSUER", "ENABLED", "RESOURCES", "SCOPES"})
			for _, c := range configs {
				t.AppendRow(table.Row{
					c.ID, c.Name, c.Issuer, c.Enabled,
					strings.Join(c.ResourceIDs, ","), strings.Join(c.Scopes, " "),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newConfigRevokeCommand(a *app, login patLogin) *cobra.Command {
	return &cobra.Command{
		Use:     "revoke <config-id>",
		Example: "  uatctl config revoke 4f6e2a10-...",
		Short:   "Deletes a UAT configuration.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp := a.controlPlane()
			session, err := login(cmd.Context(), cp)
			if err != nil {
				return err
			}
			if err := cp.RevokeConfiguration(cmd.Context(), session, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "UAT configuration %s revoked\n", args[0])
			return nil
		},
	}
}
