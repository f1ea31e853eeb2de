package api

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/dRide/cmd/util"
	"github.com/ValentinKolb/dRide/lib/ride/httpapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// APICmd starts the HTTP API of the ride coordinator
var APICmd = &cobra.Command{
	Use:   "api",
	Short: "Start the ride HTTP API",
	Long: `Start the ride HTTP API. The stores of the regions are either reached through
--route flags (one per region and role) or run in-process with --embedded.

Requests select the region with the X-Region header (US, EU, ASIA) and the read
consistency with X-Consistency-Level (STRONG, EVENTUAL).`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return util.Prepare(cmd)
	},
	RunE: run,
}

func init() {
	util.SetupRideFlags(APICmd)

	APICmd.Flags().String("listen", "0.0.0.0:8000", util.WrapString("The address the API listens on"))
}

func run(cmd *cobra.Command, _ []string) error {
	coord, closeCoord, err := util.NewCoordinator()
	if err != nil {
		return err
	}

	server := httpapi.NewServer(coord)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(viper.GetString("listen")) }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		util.Logger.Infof("Shutting down ride API")
		err = errors.Join(server.Close(), <-errCh)
	}
	return errors.Join(err, closeCoord())
}
