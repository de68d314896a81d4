package main

import (
	"context"
	"fmt"

	"github.com/abhishek19273/flight-booking-sub000/internal/app"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/internal/interface/tracking"

	"github.com/spf13/cobra"
)

func newTrackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "track [flight-id]",
		Short: "Follow live flight status updates until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				show := func(update entity.FlightStatusUpdate) {
					if notices := a.Notifier.Recent(); len(notices) > 0 && output != "json" {
						fmt.Println(notices[0].Text)
						return
					}
					printJson(update)
				}
				var listener tracking.Listener = show
				if len(args) == 1 {
					listener = tracking.OnlyFlight(args[0], show)
				}
				unsubscribe := a.Subscriber.OnUpdate(listener)
				defer unsubscribe()

				err := a.Subscriber.Run(ctx)
				if streamErr := a.Subscriber.Err(); streamErr != nil {
					return streamErr
				}
				return err
			})
		},
	}
}
