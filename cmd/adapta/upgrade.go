package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tb0hdan/adapta-history/pkg/billing"
	"github.com/tb0hdan/adapta-history/pkg/types"
)

func (a *app) upgradeCmd() *cobra.Command {
	var manage bool
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Print the checkout URL for PRO (or the billing portal with --manage)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.session.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				return types.ErrNotAuthenticated
			}

			c := billing.New(a.cfg.API.BaseURL, a.httpClient())
			var url string
			if manage {
				url, err = c.PortalURL(cmd.Context(), user)
			} else {
				url, err = c.CheckoutURL(cmd.Context(), user)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().BoolVar(&manage, "manage", false, "open the subscription portal instead")
	return cmd
}
