package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/session"
	"github.com/chimerakang/uat-go/workflow"
)

func addRunCommandTo(parent *cobra.Command, a *app) {
	var (
		plan        workflow.Plan
		verbose     bool
		sf          scopeFlags
		resourceIDs []string
	)
	cmd := &cobra.Command{
		Use:     "run",
		Example: "  uatctl run --name my-uat --email admin@example.com --grant content:read --site mysite",
		Short:   "Runs key setup, token issuance, registration and both logins in one go.",
		Long: `Runs every step of the UAT setup in order: ensure a key pair exists, sign a
token, register the configuration, log in to Cloud Manager, then sign in to the
content API. Each step reports success, failure or skipped. Failed HTTP steps
print a curl command that reproduces the request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := sf.resolve()
			if err != nil {
				return err
			}
			plan.Scopes = scopes.Strings()
			if cmd.Flags().Changed("resource-id") {
				plan.ResourceIDs = resourceIDs
			}

			runner := workflow.New(a.cfg, a.keyStore(),
				workflow.WithControlPlane(a.controlPlane()),
				workflow.WithRegistrar(a.controlPlane()),
				workflow.WithContentAPI(a.contentAPI()),
				workflow.WithSessionCache(session.New()),
				workflow.WithLogger(a.logger),
				workflow.WithAuditLogger(a.audit),
			)
			res := runner.Run(cmd.Context(), plan)
			printResult(cmd.OutOrStdout(), res, verbose)
			return res.Err()
		},
	}
	cmd.Flags().StringVarP(&plan.ConfigName, "name", "n", "", "Configuration name to register (empty skips registration).")
	cmd.Flags().StringVarP(&plan.Email, "email", "e", "", "Token subject email (required).")
	cmd.Flags().StringVar(&plan.Site, "site", "", "Content URL of the site (default: contentApiSiteId from config).")
	cmd.Flags().StringSliceVar(&resourceIDs, "resource-id", nil, "Resource LUID the configuration applies to (repeatable).")
	cmd.Flags().BoolVar(&plan.RotateKeys, "rotate-keys", false, "Replace the existing key pair before signing.")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the signed token and a curl command for every HTTP step.")
	sf.register(cmd)
	cmd.MarkFlagRequired("email")
	parent.AddCommand(cmd)
}

func printResult(w io.Writer, res *workflow.Result, verbose bool) {
	t := newTable(w, table.Row{"STEP", "STATUS", "DURATION", "MESSAGE"})
	for _, s := range res.Steps {
		status := string(s.Status)
		if s.Advisory {
			status += " (advisory)"
		}
		t.AppendRow(table.Row{s.Step, status, s.Duration.Round(time.Millisecond), s.Message})
	}
	t.Render()

	if verbose && res.Token != "" {
		fmt.Fprintf(w, "\ntoken:\n%s\n", res.Token)
	}
	for _, s := range res.Steps {
		if s.Curl == "" || (!verbose && s.Status != uat.StatusFailed) {
			continue
		}
		fmt.Fprintf(w, "\n%s request:\n%s\n", s.Step, s.Curl)
	}
}
