package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/abhishek19273/flight-booking-sub000/internal/app"
	"github.com/abhishek19273/flight-booking-sub000/internal/domain/entity"
	"github.com/abhishek19273/flight-booking-sub000/pkg/utils"

	"github.com/spf13/cobra"
)

func newSearchCommand() *cobra.Command {
	var (
		params   entity.FlightSearchParams
		cabin    string
		tripType string
		maxPrice float64
		maxStops int
		airlines []string
	)

	cmd := &cobra.Command{
		Use:   "search <from> <to> <departure-date>",
		Short: "Search flights, answering from the local cache when offline",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.From, params.To, params.DepartureDate = args[0], args[1], args[2]
			params.CabinClass = entity.CabinClass(cabin)
			params.TripType = entity.TripType(tripType)
			if cmd.Flags().Changed("max-price") {
				params.Filters.MaxPrice = &maxPrice
			}
			if cmd.Flags().Changed("max-stops") {
				for s := 0; s <= maxStops; s++ {
					params.Filters.Stops = append(params.Filters.Stops, s)
				}
			}
			params.Filters.AirlineIDs = airlines

			return withApp(func(ctx context.Context, a *app.App) error {
				result, err := a.Searcher.Search(ctx, params, func(provisional entity.SearchResult) {
					fmt.Fprintf(os.Stderr, "%d cached flights, refreshing...\n", len(provisional.Flights))
				})
				if err != nil {
					return err
				}
				if output == "json" {
					return printJson(result)
				}
				return printFlights(result, params.CabinClass)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&params.ReturnDate, "return", "", "Return date for round trips")
	f.StringVar(&tripType, "trip", string(entity.TripOneWay), "Trip type (one-way or round-trip)")
	f.StringVar(&cabin, "cabin", string(entity.CabinEconomy), "Cabin class")
	f.IntVar(&params.Passengers.Adults, "adults", 1, "Number of adults")
	f.IntVar(&params.Passengers.Children, "children", 0, "Number of children")
	f.IntVar(&params.Passengers.Infants, "infants", 0, "Number of infants")
	f.Float64Var(&maxPrice, "max-price", 0, "Highest fare to show")
	f.IntVar(&maxStops, "max-stops", 0, "Most stops to allow")
	f.StringSliceVar(&airlines, "airline", nil, "Only show these airline ids")
	f.StringVar(&params.Sorting.SortBy, "sort-by", "", "Sort by price, duration, departure_time or arrival_time")
	f.StringVar(&params.Sorting.SortOrder, "sort-order", "", "asc or desc")
	return cmd
}

func printFlights(result *entity.SearchResult, cabin entity.CabinClass) error {
	if cabin == "" {
		cabin = entity.CabinEconomy
	}
	source := string(result.Source)
	if result.Stale {
		source += " (stale)"
	}
	fmt.Printf("%d flights from %s\n\n", len(result.Flights), source)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FLIGHT\tAIRLINE\tDEPARTS\tDURATION\tSTOPS\tPRICE\tSEATS")
	for _, f := range result.Flights {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2f\t%d\n",
			f.FlightNumber,
			f.Airline.Name,
			f.DepartureTime.UTC().Format(utils.DISPLAY_LAYOUT),
			utils.FormatDuration(f.DurationMinutes),
			f.Stops,
			f.Price(cabin),
			f.AvailableSeats(cabin))
	}
	return tw.Flush()
}

func newAirportsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "airports <query>",
		Short: "Find airports by code, city or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Airports.EnsurePopulated(ctx); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
				airports, err := a.Airports.Search(ctx, args[0], limit)
				if err != nil {
					return err
				}
				if output == "json" {
					return printJson(airports)
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tNAME\tCITY\tCOUNTRY")
				for _, ap := range airports {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ap.IATACode, ap.Name, ap.City, ap.Country)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Most airports to return")
	return cmd
}

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the local search cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Remove search results past the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if !a.Cache.Available() {
					return fmt.Errorf("local cache is not available")
				}
				fmt.Printf("Removed %d expired entries\n", a.Cache.ClearExpired(ctx))
				return nil
			})
		},
	})
	return cmd
}
