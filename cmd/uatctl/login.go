package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/transport"
)

func addLoginCommandTo(parent *cobra.Command, a *app) {
	var (
		email string
		site  string
		sf    scopeFlags
	)
	cmd := &cobra.Command{
		Use:     "login",
		Example: "  uatctl login --email admin@example.com --grant content:read --site mysite",
		Short:   "Signs a token and logs in to Cloud Manager and the content API with it.",
		Long: `Signs a token and presents it to the Cloud Manager JWT login and to the
content API sign-in. The content API leg is skipped without a site. The two legs
are independent; the command fails if either leg fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := sf.resolve()
			if err != nil {
				return err
			}
			if site != "" {
				a.cfg.ContentAPISiteID = site
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			tok, err := client.IssueToken(email, scopes.Strings())
			if err != nil {
				return err
			}
			cp, api := client.Login(cmd.Context(), tok)

			out := cmd.OutOrStdout()
			printLeg(out, "controlplane", cp)
			printLeg(out, "contentapi", api)
			if cp.Status == uat.StatusFailed || api.Status == uat.StatusFailed {
				return fmt.Errorf("login failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Token subject email (required).")
	cmd.Flags().StringVar(&site, "site", "", "Content URL of the site (default: contentApiSiteId from config).")
	sf.register(cmd)
	cmd.MarkFlagRequired("email")
	parent.AddCommand(cmd)
}

func printLeg(w io.Writer, name string, leg uat.LegResult) {
	switch leg.Status {
	case uat.StatusSuccess:
		fmt.Fprintf(w, "%-13s success (session %s)\n", name+":", truncate(leg.Session.Token))
	case uat.StatusFailed:
		fmt.Fprintf(w, "%-13s failed: %v\n", name+":", leg.Err)
		if leg.Exchange != nil {
			fmt.Fprintf(w, "reproduce with:\n%s\n", transport.Curl(leg.Exchange))
		}
	default:
		fmt.Fprintf(w, "%-13s skipped\n", name+":")
	}
}

// truncate shortens a secret for display.
func truncate(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:20] + "..."
}
