package cli

import (
	"context"
	"fmt"

	"regdesk/internal/api"
	"regdesk/internal/model"
	"regdesk/internal/query"

	"github.com/spf13/cobra"
)

func newApplicantsCmd(app *App) *cobra.Command {
	var (
		page  int
		size  int
		q     string
		field string
		paid  string
		sort  string
	)

	cmd := &cobra.Command{
		Use:   "applicants",
		Short: "Query registration records",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registrations for the scoped event(s)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			req, err := buildSearchRequest(cmd.Context(), client, app, page, size, q, field, paid, sort)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := client.SearchRegistrations(cmd.Context(), *req)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":  res.Content,
				"total": res.TotalElements,
				"page":  page,
			})
		},
	}
	listCmd.Flags().IntVar(&page, "page", query.DefaultPage, "Page number (1-based)")
	listCmd.Flags().IntVar(&size, "size", query.DefaultPageSize, "Page size")
	listCmd.Flags().StringVar(&q, "query", "", "Free-text search")
	listCmd.Flags().StringVar(&field, "field", string(query.DefaultSearchField), "Search field (all|name|phone|organization|payer)")
	listCmd.Flags().StringVar(&paid, "paid", "", "Payment status filter (e.g. UNPAID, COMPLETED; empty = any)")
	listCmd.Flags().StringVar(&sort, "sort", string(query.DefaultSortKey), "Sort key (id|name|registeredAt|paymentStatus)")

	cmd.AddCommand(listCmd)
	return cmd
}

func buildSearchRequest(ctx context.Context, client *api.Client, app *App, page, size int, q, field, paid, sort string) (*api.SearchRequest, error) {
	ids := scopedEventIDs(app.Event)
	if len(ids) == 0 {
		id, err := pickDefaultEvent(ctx, client)
		if err != nil {
			return nil, err
		}
		ids = []string{id}
	}

	sf := query.SearchField(field)
	if !sf.Valid() {
		return nil, fmt.Errorf("unknown search field %q", field)
	}
	sk := query.SortKey(sort)
	if !sk.Valid() {
		return nil, fmt.Errorf("unknown sort key %q", sort)
	}
	ps := model.PaymentStatus(paid)
	if paid != "" && !ps.Valid() {
		return nil, fmt.Errorf("unknown payment status %q", paid)
	}
	if page < 1 {
		page = query.DefaultPage
	}
	if size < 1 {
		size = query.DefaultPageSize
	}

	return &api.SearchRequest{
		EventIDs:    ids,
		Page:        page,
		Size:        size,
		SortKey:     string(sk),
		PaidFilter:  string(ps),
		Query:       q,
		SearchField: string(sf),
	}, nil
}
