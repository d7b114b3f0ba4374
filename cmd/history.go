package main

import (
	"fmt"
	"subhunt/internal/discovery"
	"subhunt/pkg/logger"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// historyCommand constructs the 'history' subcommand that lists the inventory of
// a domain.
func (a *app) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history -d <domain>",
		Short: "Lists every subdomain recorded for a domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			strg, closeStrg, err := newPostgres(ctx, a.cfg)
			if err != nil {
				return a.fail(ctx, "could not connect to the inventory database", err)
			}
			defer closeStrg()

			subs, err := discovery.New(nil, strg).History(ctx, a.flags.domain)
			if err != nil {
				return a.fail(ctx, "could not get history", err)
			}
			if len(subs) == 0 {
				logger.Warn(ctx, "no subdomains recorded", zap.String("domain", a.flags.domain))

				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "SUBDOMAIN\tFIRST SEEN\tLAST SEEN")
			for _, s := range subs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
					s.Name,
					s.FirstSeenAt.Local().Format(historyTimeLayout),
					s.LastSeenAt.Local().Format(historyTimeLayout))
			}
			if err := w.Flush(); err != nil {
				return a.fail(ctx, "could not print history", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&a.flags.domain, "domain", "d", "", "Domain to list")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}
