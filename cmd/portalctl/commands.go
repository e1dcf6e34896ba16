package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

var initiator string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := container.Postgres.PoolHandle()
		if pool == nil {
			return errors.New("POSTGRES_DSN is not set")
		}
		if err := persistence.RunMigrations(cmd.Context(), pool, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), success.Render("migrations applied"))
		return nil
	},
}

var resolveAllCmd = &cobra.Command{
	Use:   "resolve-all",
	Short: "Resolve every ticket in the project (support account only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := container.Reconcile.BulkResolve(cmd.Context(), initiator)
		if err != nil {
			return describe(err)
		}
		return emitBulk(cmd, "Bulk resolve", res)
	},
}

var resolvePendingCmd = &cobra.Command{
	Use:   "resolve-pending",
	Short: "Resolve tickets whose stored category is Pending Reply (support account only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := container.Reconcile.BulkResolvePending(cmd.Context(), initiator)
		if err != nil {
			return describe(err)
		}
		return emitBulk(cmd, "Pending resolve", res)
	},
}

var syncCategoriesCmd = &cobra.Command{
	Use:   "sync-categories",
	Short: "Push every stored category to the tracker",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := container.Reconcile.BulkSyncAllCategories(cmd.Context())
		if err != nil {
			return describe(err)
		}
		if jsonOutput {
			return printJSON(cmd, rep)
		}
		printSyncReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category <ticket-key>",
	Short: "Show the effective category of a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eff, err := container.Sync.EffectiveCategory(cmd.Context(), strings.TrimSpace(args[0]))
		if err != nil {
			return describe(err)
		}
		if jsonOutput {
			return printJSON(cmd, dto.CategoryResponse{
				TicketKey:     eff.TicketKey,
				Category:      eff.Category,
				Source:        eff.Source,
				TrackerStatus: eff.TrackerStatus,
			})
		}
		printEffective(cmd.OutOrStdout(), eff)
		return nil
	},
}

var awaitTicketCmd = &cobra.Command{
	Use:   "await-ticket <pending-id>",
	Short: "Poll a pending ticket until the tracker creates it or attempts run out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pt, err := container.Pending.AwaitTicket(cmd.Context(), args[0])
		if err != nil {
			return describe(err)
		}
		if jsonOutput {
			return printJSON(cmd, dto.PendingTicketFromDomain(pt))
		}
		printPending(cmd.OutOrStdout(), pt)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{resolveAllCmd, resolvePendingCmd} {
		c.Flags().StringVar(&initiator, "as", "", "Email of the account running the job")
		_ = c.MarkFlagRequired("as")
	}
	rootCmd.AddCommand(migrateCmd, resolveAllCmd, resolvePendingCmd, syncCategoriesCmd, categoryCmd, awaitTicketCmd)
}

func emitBulk(cmd *cobra.Command, title string, res *service.BulkResult) error {
	if jsonOutput {
		return printJSON(cmd, res)
	}
	printBulkResult(cmd.OutOrStdout(), title, res)
	return nil
}

// describe flattens a domain error into its code and message.
func describe(err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		if de.Err != nil {
			return fmt.Errorf("%s: %s (%v)", de.Code, de.Message, de.Err)
		}
		return fmt.Errorf("%s: %s", de.Code, de.Message)
	}
	return err
}
