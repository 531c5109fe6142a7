package record

import (
	"encoding/json"
	"fmt"
	"strconv"

	librecord "github.com/ValentinKolb/dRS/lib/record"
	"github.com/spf13/cobra"
)

var (
	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Opens the configured table, creating it and its indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The table is opened during client setup, reaching this point
			// means the start request succeeded
			fmt.Printf("table %s opened\n", tableName())
			return nil
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [record]",
		Short: "Creates a new record from a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[0])
			if err != nil {
				return err
			}
			id, err := rpcStore.Create(tableName(), rec)
			if err != nil {
				return err
			}
			fmt.Printf("created record id=%d\n", id)
			return nil
		},
	}
	readCmd = &cobra.Command{
		Use:   "read [id]",
		Short: "Reads a record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := rpcStore.Read(tableName(), id)
			if err != nil {
				return err
			}
			return printRecord(rec)
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [record]",
		Short: "Updates an existing record from a JSON object (must contain an id)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[0])
			if err != nil {
				return err
			}
			id, err := rpcStore.Update(tableName(), rec)
			if err != nil {
				return err
			}
			fmt.Printf("updated record id=%d\n", id)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Deletes a record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			found, err := rpcStore.Delete(tableName(), id)
			if err != nil {
				return err
			}
			fmt.Printf("id=%d, found=%t\n", id, found)
			return nil
		},
	}
	getAllCmd = &cobra.Command{
		Use:   "getall",
		Short: "Lists all records of the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := rpcStore.GetAll(tableName())
			if err != nil {
				return err
			}
			for _, rec := range recs {
				if err := printRecord(rec); err != nil {
					return err
				}
			}
			fmt.Printf("%d record(s)\n", len(recs))
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count",
		Short: "Counts the records of the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := rpcStore.CountRecords(tableName())
			if err != nil {
				return err
			}
			fmt.Printf("count=%d\n", count)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Shows metadata about the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcStore.Info()
			if err != nil {
				return err
			}
			body, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}
)

// parseRecord decodes a JSON object into a record
func parseRecord(arg string) (librecord.Record, error) {
	var rec librecord.Record
	if err := json.Unmarshal([]byte(arg), &rec); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return rec, nil
}

// parseID parses a record id argument
func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be a number: %w", err)
	}
	return id, nil
}

// printRecord prints a record as a JSON line
func printRecord(rec librecord.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	return nil
}
