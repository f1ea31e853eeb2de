package ride

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/spf13/cobra"
)

var (
	addDriverCmd = &cobra.Command{
		Use:   "add-driver [name] [latitude] [longitude]",
		Short: "Creates an available driver",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLocation(args[1], args[2])
			if err != nil {
				return err
			}
			id, _ := cmd.Flags().GetString("id")
			d, err := coord.Drivers().Create(cmd.Context(), selection().Region, model.Driver{ID: id, Name: args[0], Latitude: lat, Longitude: lon})
			if err != nil {
				return err
			}
			return printJSON(d)
		},
	}
	addPassengerCmd = &cobra.Command{
		Use:   "add-passenger [name] [latitude] [longitude]",
		Short: "Creates an online passenger",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLocation(args[1], args[2])
			if err != nil {
				return err
			}
			id, _ := cmd.Flags().GetString("id")
			p, err := coord.Passengers().Create(cmd.Context(), selection().Region, model.Passenger{ID: id, Name: args[0], Latitude: lat, Longitude: lon})
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
	moveDriverCmd = &cobra.Command{
		Use:   "move-driver [id] [latitude] [longitude]",
		Short: "Updates the location of a driver",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLocation(args[1], args[2])
			if err != nil {
				return err
			}
			d, err := coord.Drivers().UpdateLocation(cmd.Context(), selection().Region, args[0], lat, lon)
			if err != nil {
				return err
			}
			return printJSON(d)
		},
	}
	driverStatusCmd = &cobra.Command{
		Use:   "driver-status [id] [AVAILABLE|OFFLINE]",
		Short: "Sets a driver available or offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := model.ParseDriverStatus(args[1])
			if err != nil {
				return err
			}
			d, err := coord.Drivers().SetStatus(cmd.Context(), selection().Region, args[0], status)
			if err != nil {
				return err
			}
			return printJSON(d)
		},
	}
	bookCmd = &cobra.Command{
		Use:   "book [passengerId]",
		Short: "Books a ride with the nearest available driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ride, err := coord.BookRide(cmd.Context(), selection().Region, args[0])
			if err != nil {
				return err
			}
			return printJSON(ride)
		},
	}
	endCmd = &cobra.Command{
		Use:   "end [rideId]",
		Short: "Completes an ongoing ride",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ride, err := coord.EndRide(cmd.Context(), selection().Region, args[0])
			if err != nil {
				return err
			}
			return printJSON(ride)
		},
	}
	ridesCmd = &cobra.Command{
		Use:   "rides [id]",
		Short: "Lists all rides of the region or shows one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := selection()
			if len(args) == 1 {
				ride, err := coord.GetRideByID(cmd.Context(), sel.Region, args[0], sel.Consistency)
				if err != nil {
					return err
				}
				return printJSON(ride)
			}
			rides, err := coord.GetAllRides(cmd.Context(), sel.Region, sel.Consistency)
			if err != nil {
				return err
			}
			return printJSON(rides)
		},
	}
	driversCmd = &cobra.Command{
		Use:   "drivers",
		Short: "Lists all drivers of the region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel := selection()
			drivers, err := coord.Drivers().List(cmd.Context(), sel.Region, sel.Consistency)
			if err != nil {
				return err
			}
			return printJSON(drivers)
		},
	}
	passengersCmd = &cobra.Command{
		Use:   "passengers",
		Short: "Lists all passengers of the region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel := selection()
			passengers, err := coord.Passengers().List(cmd.Context(), sel.Region, sel.Consistency)
			if err != nil {
				return err
			}
			return printJSON(passengers)
		},
	}
)

func init() {
	addDriverCmd.Flags().String("id", "", "ID of the driver (generated if empty)")
	addPassengerCmd.Flags().String("id", "", "ID of the passenger (generated if empty)")
}

func parseLocation(lat, lon string) (float64, float64, error) {
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude must be a number: %w", err)
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude must be a number: %w", err)
	}
	return latitude, longitude, nil
}
