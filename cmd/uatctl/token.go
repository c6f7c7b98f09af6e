package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/audit"
	"github.com/chimerakang/uat-go/scope"
	"github.com/chimerakang/uat-go/token"
)

// scopeFlags are the flags shared by every command that requests scopes.
type scopeFlags struct {
	scopes []string
	grants []string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.scopes, "scope", "s", nil, "Scope string `<prefix>:<action>` (repeatable).")
	cmd.Flags().StringSliceVarP(&f.grants, "grant", "g", nil, "Catalog grant `<resource-type>:<action>`, e.g. content:read (repeatable).")
}

// resolve encodes the grants and validates the combined list.
func (f *scopeFlags) resolve() (scope.Set, error) {
	raw := append([]string(nil), f.scopes...)
	for _, g := range f.grants {
		i := strings.LastIndexByte(g, ':')
		if i <= 0 {
			return nil, uat.Invalid("grant", "%q is not of the form <resource-type>:<action>", g)
		}
		s, err := scope.Encode(g[:i], g[i+1:])
		if err != nil {
			return nil, err
		}
		raw = append(raw, s.String())
	}
	return scope.ValidateSet(raw)
}

func addScopesCommandTo(parent *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "scopes",
		Short: "Lists the scope catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd.OutOrStdout(), table.Row{"TYPE", "PREFIX", "ACTIONS", "DESCRIPTION"})
			for _, rt := range scope.ResourceTypes() {
				t.AppendRow(table.Row{rt, scope.Prefix(rt), strings.Join(scope.Actions(rt), ","), scope.Describe(rt)})
			}
			t.Render()
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func addTokenCommandTo(parent *cobra.Command, a *app) {
	var (
		email      string
		tenantID   string
		expiry     int
		showClaims bool
		sf         scopeFlags
	)
	cmd := &cobra.Command{
		Use:     "token",
		Example: "  uatctl token --email admin@example.com --grant content:read --grant site:*",
		Short:   "Signs a UAT token with the local private key.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := sf.resolve()
			if err != nil {
				return err
			}
			priv, err := a.keyStore().LoadPrivateKey()
			if err != nil {
				return err
			}
			if tenantID == "" {
				tenantID = a.cfg.TenantID
			}
			if expiry == 0 {
				expiry = a.cfg.JWTExpirationMinutes
			}

			issued, err := token.NewBuilder(priv).Issue(token.Request{
				Issuer:   a.cfg.JWTIssuer,
				TenantID: tenantID,
				Email:    email,
				Scopes:   scopes.Strings(),
				Expiry:   time.Duration(expiry) * time.Minute,
			})
			event := audit.Event{
				Action:   audit.ActionTokenIssue,
				Issuer:   a.cfg.JWTIssuer,
				TenantID: tenantID,
				Subject:  email,
				Scopes:   scopes.Strings(),
				Result:   audit.ResultSuccess,
			}
			if err != nil {
				event.Result, event.Error = audit.ResultFailure, err.Error()
				a.audit.LogContext(cmd.Context(), event)
				return err
			}
			a.audit.LogContext(cmd.Context(), event)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, issued.Token)
			if showClaims {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(issued.Claims)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Token subject email (required).")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID claim (default: tenantId from config).")
	cmd.Flags().IntVar(&expiry, "expiry", 0, "Lifetime in minutes (default: jwtExpirationMinutes from config).")
	cmd.Flags().BoolVar(&showClaims, "claims", false, "Also print the claims as JSON.")
	sf.register(cmd)
	cmd.MarkFlagRequired("email")
	parent.AddCommand(cmd)
}
