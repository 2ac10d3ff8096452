package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	httpadapter "traject/contexts/assessment-workflow/traject-service/adapters/http"
	trajecthttp "traject/contexts/assessment-workflow/traject-service/transport/http"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <traject-id>",
		Short: "Show a traject and its status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := ctx.ensureModule()
			if err != nil {
				return err
			}
			traject, err := module.Handler.GetTrajectHandler(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTraject(cmd.OutOrStdout(), traject)
			return nil
		},
	}
}

func newProvisionCommand(ctx *commandContext) *cobra.Command {
	var coachID string
	var expiresAt string
	var actorID string

	cmd := &cobra.Command{
		Use:   "provision <candidate-id>",
		Short: "Create a traject at Collecting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := ctx.ensureModule()
			if err != nil {
				return err
			}
			traject, err := module.Handler.ProvisionTrajectHandler(
				cmd.Context(),
				httpadapter.ResolveActor(actorID, "admin"),
				trajecthttp.ProvisionTrajectRequest{
					CandidateID: args[0],
					CoachID:     coachID,
					ExpiresAt:   expiresAt,
				},
			)
			if err != nil {
				return err
			}
			printTraject(cmd.OutOrStdout(), traject)
			return nil
		},
	}
	cmd.Flags().StringVar(&coachID, "coach", "", "Coach user id")
	cmd.Flags().StringVar(&expiresAt, "expires-at", "", "Expiry timestamp (RFC 3339)")
	cmd.Flags().StringVar(&actorID, "actor", "trajectctl", "Administrator id recorded in history")
	return cmd
}

func newAdvanceCommand(ctx *commandContext) *cobra.Command {
	var actorID string
	var role string
	var note string
	var assessorID string

	cmd := &cobra.Command{
		Use:   "advance <traject-id> <status>",
		Short: "Move a traject to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := ctx.ensureModule()
			if err != nil {
				return err
			}
			traject, err := module.Handler.AdvanceStatusHandler(
				cmd.Context(),
				httpadapter.ResolveActor(actorID, role),
				args[0],
				trajecthttp.AdvanceStatusRequest{
					Status:              args[1],
					Note:                note,
					NominatedAssessorID: assessorID,
				},
			)
			if err != nil {
				return err
			}
			printTraject(cmd.OutOrStdout(), traject)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "Acting user id")
	cmd.Flags().StringVar(&role, "role", "admin", "Acting user role")
	cmd.Flags().StringVar(&note, "note", "", "History note")
	cmd.Flags().StringVar(&assessorID, "assessor", "", "Nominated assessor id (Quality to Assessment)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newCasesCommand(ctx *commandContext) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "cases <owner-role> <owner-id>",
		Short: "List the cases indexed under one owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := ctx.ensureModule()
			if err != nil {
				return err
			}
			resp, err := module.Handler.ListOwnerCasesHandler(cmd.Context(), args[0], args[1], status, limit)
			if err != nil {
				return err
			}
			if len(resp.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cases")
				return nil
			}
			rows := make([][]string, 0, len(resp.Items))
			for _, item := range resp.Items {
				rows = append(rows, []string{
					item.TrajectID,
					item.Status,
					valueOr(item.StatusUpdatedAt, "-"),
					strconv.Itoa(len(item.StatusHistory)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Traject", "Status", "Updated", "History"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only cases in this status")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum rows")
	return cmd
}

func newArchiveExpiredCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive-expired",
		Short: "Run one scheduled archival sweep now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := ctx.ensureModule()
			if err != nil {
				return err
			}
			archived, err := module.Workers.ArchiveExpired.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d expired traject(s)\n", archived)
			return nil
		},
	}
}

func printTraject(out io.Writer, traject trajecthttp.TrajectDTO) {
	fmt.Fprintln(out, renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"ID", traject.ID},
			{"Status", traject.Status},
			{"Previous", valueOr(traject.PreviousStatus, "-")},
			{"Next", valueOr(traject.NextStatus, "-")},
			{"Updated at", valueOr(traject.StatusUpdatedAt, "-")},
			{"Updated by", strings.TrimSpace(valueOr(traject.StatusUpdatedBy, "") + " " + valueOr(traject.StatusUpdatedByRole, ""))},
			{"Coach", valueOr(traject.CoachID, "-")},
			{"Quality coordinator", valueOr(traject.QualityCoordinatorID, "-")},
			{"Assessor", valueOr(traject.AssessorID, "-")},
			{"Expires at", valueOr(traject.ExpiresAt, "-")},
		},
		nil,
	))
	if len(traject.StatusHistory) == 0 {
		return
	}
	rows := make([][]string, 0, len(traject.StatusHistory))
	for i, entry := range traject.StatusHistory {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			entry.Status,
			valueOr(entry.ChangedAt, "-"),
			valueOr(entry.ActorID, "system"),
			valueOr(entry.ActorRole, "-"),
			valueOr(entry.Note, ""),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Status", "Changed at", "Actor", "Role", "Note"},
		rows,
		[]columnAlignment{alignRight},
	))
}

func valueOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
