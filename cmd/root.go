package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dRide/cmd/api"
	"github.com/ValentinKolb/dRide/cmd/ride"
	"github.com/ValentinKolb/dRide/cmd/serve"
	"github.com/ValentinKolb/dRide/cmd/store"
	"github.com/ValentinKolb/dRide/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dride",
		Short: "region aware ride matching on a sharded hash and geo store",
		Long: fmt.Sprintf(`dRide (v%s)

Ride matching for passengers and drivers in several regions. Every region
has a master store and an asynchronously updated replica, reads choose
between them by consistency level.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dRide",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dRide v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(store.StoreCommands)
	RootCmd.AddCommand(api.APICmd)
	RootCmd.AddCommand(ride.RideCommands)
	RootCmd.AddCommand(versionCmd)

	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer of the store protocol (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport of the store protocol (http, tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("level at which logs are written (debug, info, warning, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
