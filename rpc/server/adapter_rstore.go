package server

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/rpc/common"
)

func NewRecordStoreServerAdapter() IRPCServerAdapter {
	return &recordStoreServerAdapterImpl{}
}

type recordStoreServerAdapterImpl struct{}

func (adapter *recordStoreServerAdapterImpl) Handle(req *common.Message, s store.IRecordStore) *common.Message {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse("handler: store is nil", store.RetCConnNotInitialized)
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTRSStart:
		err := s.Start(req.Database, req.Table, req.Indexes...)
		return common.NewStartResponse(err)
	case common.MsgTRSCreate:
		rec, err := decodeRecord(req.Value)
		if err != nil {
			return common.NewErrorResponse(err.Error(), store.RetCInternalError)
		}
		id, err := s.Create(req.Table, rec)
		return common.NewCreateResponse(id, err)
	case common.MsgTRSRead:
		rec, err := s.Read(req.Table, req.ID)
		if err != nil {
			return common.NewReadResponse(nil, err)
		}
		body, err := json.Marshal(rec)
		return common.NewReadResponse(body, err)
	case common.MsgTRSUpdate:
		rec, err := decodeRecord(req.Value)
		if err != nil {
			return common.NewErrorResponse(err.Error(), store.RetCInternalError)
		}
		id, err := s.Update(req.Table, rec)
		return common.NewUpdateResponse(id, err)
	case common.MsgTRSDelete:
		found, err := s.Delete(req.Table, req.ID)
		return common.NewDeleteResponse(found, err)
	case common.MsgTRSGetAll:
		recs, err := s.GetAll(req.Table)
		if err != nil {
			return common.NewGetAllResponse(nil, err)
		}
		values := make([][]byte, len(recs))
		for i, rec := range recs {
			if values[i], err = json.Marshal(rec); err != nil {
				return common.NewGetAllResponse(nil, err)
			}
		}
		return common.NewGetAllResponse(values, nil)
	case common.MsgTRSCount:
		count, err := s.CountRecords(req.Table)
		return common.NewCountResponse(count, err)
	case common.MsgTRSInfo:
		info, err := s.Info()
		if err != nil {
			return common.NewInfoResponse(nil, err)
		}
		body, err := json.Marshal(info)
		return common.NewInfoResponse(body, err)
	case common.MsgTRSClose:
		err := s.Close()
		return common.NewCloseResponse(err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC RecordStoreAdapter - Unsupported message type: %s", req.MsgType),
			store.RetCInternalError,
		)
	}
}

// decodeRecord unpacks the JSON encoded record of a create or update request
func decodeRecord(value []byte) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %v", err)
	}
	return rec, nil
}
