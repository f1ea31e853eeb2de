package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/spf13/cobra"
)

var (
	hsetCmd = &cobra.Command{
		Use:   "hset [collection] [field] [value]",
		Short: "Sets the value of a field in a hash collection",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.HSet(cmd.Context(), args[0], args[1], []byte(args[2])); err != nil {
				return err
			}
			fmt.Println("hset successfully")
			return nil
		},
	}
	hsetEIfUnsetCmd = &cobra.Command{
		Use:   "hsetEIfUnset [collection] [field] [value] [deleteIn]",
		Short: "Sets a field only if it does not exist, it is deleted after deleteIn further writes (0 keeps it)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleteIn, err := strconv.ParseUint(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("deleteIn must be a number: %w", err)
			}
			if err := rpcStore.HSetEIfUnset(cmd.Context(), args[0], args[1], []byte(args[2]), deleteIn); err != nil {
				return err
			}
			fmt.Println("hsetEIfUnset successfully")
			return nil
		},
	}
	hgetCmd = &cobra.Command{
		Use:   "hget [collection] [field]",
		Short: "Reads the value of a field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := rpcStore.HGet(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("collection=%s, field=%s, found=%v, value=%s\n", args[0], args[1], ok, value)
			return nil
		},
	}
	hgetAllCmd = &cobra.Command{
		Use:   "hgetall [collection]",
		Short: "Reads all fields of a hash collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := rpcStore.HGetAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%s=%s\n", name, fields[name])
			}
			fmt.Printf("(%d fields)\n", len(fields))
			return nil
		},
	}
	hdelCmd = &cobra.Command{
		Use:   "hdel [collection] [field]",
		Short: "Deletes a field of a hash collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.HDel(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("hdel successfully")
			return nil
		},
	}
	geoAddCmd = &cobra.Command{
		Use:   "geoadd [key] [member] [longitude] [latitude]",
		Short: "Inserts or moves a member of a geo collection",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			point, err := parsePoint(args[2], args[3])
			if err != nil {
				return err
			}
			if err := rpcStore.GeoAdd(cmd.Context(), args[0], args[1], point); err != nil {
				return err
			}
			fmt.Println("geoadd successfully")
			return nil
		},
	}
	geoRemoveCmd = &cobra.Command{
		Use:   "georem [key] [member]",
		Short: "Removes a member of a geo collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.GeoRemove(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("georem successfully")
			return nil
		},
	}
	geoRadiusCmd = &cobra.Command{
		Use:   "georadius [key] [longitude] [latitude] [radiusKm]",
		Short: "Lists the members within the radius, nearest first",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			center, err := parsePoint(args[1], args[2])
			if err != nil {
				return err
			}
			radius, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("radiusKm must be a number: %w", err)
			}
			members, err := rpcStore.GeoRadius(cmd.Context(), args[0], center, radius)
			if err != nil {
				return err
			}
			for _, m := range members {
				fmt.Printf("%s\t%.3f km\t(lon=%f, lat=%f)\n", m.Member, m.DistKm, m.Point.Lon, m.Point.Lat)
			}
			fmt.Printf("(%d members)\n", len(members))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := rpcStore.GetDBInfo(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
)

func parsePoint(lon, lat string) (db.GeoPoint, error) {
	var point db.GeoPoint
	var err error
	if point.Lon, err = strconv.ParseFloat(lon, 64); err != nil {
		return point, fmt.Errorf("longitude must be a number: %w", err)
	}
	if point.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return point, fmt.Errorf("latitude must be a number: %w", err)
	}
	return point, point.Validate()
}
