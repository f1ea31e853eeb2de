package store

import (
	"io"

	"github.com/ValentinKolb/dRide/cmd/util"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// StoreCommands represents the raw store command group
	StoreCommands = &cobra.Command{
		Use:                "store",
		Short:              "Perform hash and geo operations on a shard of a store node",
		PersistentPreRunE:  setupStoreClient,
		PersistentPostRunE: closeStoreClient,
	}
)

func init() {
	util.SetupRPCClientFlags(StoreCommands)

	StoreCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))

	StoreCommands.AddCommand(hsetCmd)
	StoreCommands.AddCommand(hsetEIfUnsetCmd)
	StoreCommands.AddCommand(hgetCmd)
	StoreCommands.AddCommand(hgetAllCmd)
	StoreCommands.AddCommand(hdelCmd)
	StoreCommands.AddCommand(geoAddCmd)
	StoreCommands.AddCommand(geoRemoveCmd)
	StoreCommands.AddCommand(geoRadiusCmd)
	StoreCommands.AddCommand(infoCmd)
}

// setupStoreClient initializes the RPC store client
func setupStoreClient(cmd *cobra.Command, _ []string) error {
	if err := util.Prepare(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()
	shardId := util.GetShardID()

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(
		shardId,
		*config,
		t,
		s,
	)

	return err
}

func closeStoreClient(*cobra.Command, []string) error {
	if c, ok := rpcStore.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
