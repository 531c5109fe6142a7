package record

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dRS/cmd/util"
	librecord "github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcStore store.IRecordStore

	// RecordCommands represents the record command group
	RecordCommands = &cobra.Command{
		Use:               "record",
		Short:             "Perform record store operations",
		PersistentPreRunE: setupRecordClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the record command
	util.SetupRPCClientFlags(RecordCommands)

	// Add record store specific flags
	RecordCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))
	RecordCommands.PersistentFlags().String("database", "default-db", util.WrapString("Name of the database to open (must end with -db)"))
	RecordCommands.PersistentFlags().String("table", "app-records", util.WrapString("Name of the table to operate on"))
	RecordCommands.PersistentFlags().Uint64("schema-version", 1, util.WrapString("Schema version to open the store at"))
	RecordCommands.PersistentFlags().StringSlice("index", nil, util.WrapString("Secondary index on the table. Format: FIELD[:unique][:multi] (can be given multiple times)"))

	// Add subcommands
	RecordCommands.AddCommand(startCmd)
	RecordCommands.AddCommand(createCmd)
	RecordCommands.AddCommand(readCmd)
	RecordCommands.AddCommand(updateCmd)
	RecordCommands.AddCommand(deleteCmd)
	RecordCommands.AddCommand(getAllCmd)
	RecordCommands.AddCommand(countCmd)
	RecordCommands.AddCommand(infoCmd)
}

// setupRecordClient initializes the RPC record store client and opens the
// configured table
func setupRecordClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the record store client
	rpcStore, err = client.NewRPCRecordStore(
		shardId,
		*config,
		t,
		s,
		&store.Options{SchemaVersion: viper.GetUint64("schema-version")},
	)
	if err != nil {
		return err
	}

	// Parse the index flags
	indexes, err := parseIndexSpecs(viper.GetStringSlice("index"))
	if err != nil {
		return err
	}

	// Open the table on the remote shard
	return rpcStore.Start(viper.GetString("database"), viper.GetString("table"), indexes...)
}

// tableName returns the configured table name
func tableName() string {
	return viper.GetString("table")
}

// parseIndexSpecs converts index flag values (FIELD[:unique][:multi]) into
// index specs
func parseIndexSpecs(flags []string) ([]librecord.IndexSpec, error) {
	specs := make([]librecord.IndexSpec, 0, len(flags))
	for _, flag := range flags {
		parts := strings.Split(flag, ":")
		field := strings.TrimSpace(parts[0])
		if field == "" {
			return nil, fmt.Errorf("invalid index %q (expected FIELD[:unique][:multi])", flag)
		}

		spec := librecord.Index(field)
		if len(parts) > 1 {
			// Options require the structured form
			spec = spec.Normalize()
			spec.Options = map[string]interface{}{}
			for _, opt := range parts[1:] {
				switch strings.TrimSpace(opt) {
				case "unique":
					spec.Options[librecord.OptionUnique] = true
				case "multi":
					spec.Options[librecord.OptionMultiEntry] = true
				default:
					return nil, fmt.Errorf("invalid index option %q (expected unique or multi)", opt)
				}
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
