package ride

import (
	"encoding/json"
	"os"

	"github.com/ValentinKolb/dRide/cmd/util"
	"github.com/ValentinKolb/dRide/lib/ride/coordinator"
	"github.com/ValentinKolb/dRide/lib/ride/reqctx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	coord      *coordinator.Coordinator
	closeCoord func() error

	// RideCommands runs the coordinator operations from the command line
	RideCommands = &cobra.Command{
		Use:                "ride",
		Short:              "Manage drivers, passengers and rides",
		PersistentPreRunE:  setupCoordinator,
		PersistentPostRunE: func(*cobra.Command, []string) error { return closeCoord() },
	}
)

func init() {
	util.SetupRideFlags(RideCommands)

	RideCommands.PersistentFlags().String("region", "US", util.WrapString("Region of the operation (US, EU, ASIA)"))
	RideCommands.PersistentFlags().String("consistency", "STRONG", util.WrapString("Consistency of reads (STRONG, EVENTUAL)"))

	RideCommands.AddCommand(addDriverCmd)
	RideCommands.AddCommand(addPassengerCmd)
	RideCommands.AddCommand(moveDriverCmd)
	RideCommands.AddCommand(driverStatusCmd)
	RideCommands.AddCommand(bookCmd)
	RideCommands.AddCommand(endCmd)
	RideCommands.AddCommand(ridesCmd)
	RideCommands.AddCommand(driversCmd)
	RideCommands.AddCommand(passengersCmd)
}

func setupCoordinator(cmd *cobra.Command, _ []string) error {
	if err := util.Prepare(cmd); err != nil {
		return err
	}
	var err error
	coord, closeCoord, err = util.NewCoordinator()
	return err
}

// selection returns the region and consistency given by the flags
func selection() reqctx.Values {
	return reqctx.Parse(viper.GetString("region"), viper.GetString("consistency"))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
