package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/abhishek19273/flight-booking-sub000/internal/app"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"

	"github.com/spf13/cobra"
)

func newBookingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List, show and cancel bookings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				list, source, err := a.Bookings.List(ctx)
				if err != nil {
					return err
				}
				return printBookings(list, source)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <booking-id>",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				details, source, err := a.Bookings.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printBookings([]entity.BookingDetails{*details}, source)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				details, err := a.Bookings.Cancel(ctx, args[0])
				if err != nil {
					return err
				}
				return printBookings([]entity.BookingDetails{*details}, entity.SourceNetwork)
			})
		},
	})

	return cmd
}

func printBookings(list []entity.BookingDetails, source entity.ResultSource) error {
	if output == "json" {
		return printJson(list)
	}
	if source != entity.SourceNetwork {
		fmt.Fprintf(os.Stderr, "Showing local copies (%s)\n", source)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREFERENCE\tTRIP\tSTATUS\tFLIGHTS\tPASSENGERS\tTOTAL")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\n",
			b.ID, b.BookingReference, b.TripType, b.Status, len(b.Flights), len(b.Passengers), b.TotalAmount)
	}
	return tw.Flush()
}
