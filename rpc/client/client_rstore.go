package client

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/rpc/common"
	"github.com/ValentinKolb/dRS/rpc/serializer"
	"github.com/ValentinKolb/dRS/rpc/transport"
)

// NewRPCRecordStore creates a new RPC record store
// The function takes a shard ID, a config, a transport, a serializer and
// optional store options as parameters
// It returns a store.IRecordStore and an error
func NewRPCRecordStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	opts *store.Options,
) (store.IRecordStore, error) {
	if opts == nil {
		opts = store.DefaultOptions()
	}

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC record store
	s := rpcRecordStore{
		rpcClientAdapter: rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
		version: opts.SchemaVersion,
	}

	// Return the RPC record store
	return &s, nil
}

type rpcRecordStore struct {
	rpcClientAdapter
	version uint64
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcRecordStore) Start(database, table string, indexes ...record.IndexSpec) error {
	req := common.NewStartRequest(database, table, i.version, indexes)
	_, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcRecordStore) Create(table string, rec record.Record) (uint64, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %v", err)
	}

	req := common.NewCreateRequest(table, body)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (i *rpcRecordStore) Read(table string, id uint64) (record.Record, error) {
	req := common.NewReadRequest(table, id)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}

	var rec record.Record
	if err := json.Unmarshal(resp.Value, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %v", err)
	}
	return rec, nil
}

func (i *rpcRecordStore) Update(table string, rec record.Record) (uint64, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %v", err)
	}

	req := common.NewUpdateRequest(table, body)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (i *rpcRecordStore) Delete(table string, id uint64) (bool, error) {
	req := common.NewDeleteRequest(table, id)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcRecordStore) GetAll(table string) ([]record.Record, error) {
	req := common.NewGetAllRequest(table)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}

	recs := make([]record.Record, len(resp.Values))
	for idx, value := range resp.Values {
		if err := json.Unmarshal(value, &recs[idx]); err != nil {
			return nil, fmt.Errorf("failed to decode record: %v", err)
		}
	}
	return recs, nil
}

func (i *rpcRecordStore) CountRecords(table string) (uint64, error) {
	req := common.NewCountRequest(table)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (i *rpcRecordStore) Info() (store.StoreInfo, error) {
	req := common.NewInfoRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return store.StoreInfo{}, err
	}

	var info store.StoreInfo
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		return store.StoreInfo{}, fmt.Errorf("failed to decode store info: %v", err)
	}
	return info, nil
}

func (i *rpcRecordStore) Close() error {
	req := common.NewCloseRequest()
	_, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}
