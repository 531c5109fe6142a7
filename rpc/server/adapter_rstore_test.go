package server

import (
	"encoding/json"
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/lib/store/mstore"
	"github.com/ValentinKolb/dRS/rpc/common"
)

// newTestStore creates a started in-memory record store for adapter tests
func newTestStore(t *testing.T) store.IRecordStore {
	t.Helper()
	s := store.NewRecordStore(mstore.NewMemoryAdapter, nil)
	if err := s.Start("test-db", "app-items"); err != nil {
		t.Fatalf("failed to start store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAdapterNilStore(t *testing.T) {
	adapter := NewRecordStoreServerAdapter()

	resp := adapter.Handle(common.NewReadRequest("app-items", 1), nil)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error response, got %s", resp.MsgType)
	}
	if store.RetCode(resp.Code) != store.RetCConnNotInitialized {
		t.Errorf("expected code %d, got %d", store.RetCConnNotInitialized, resp.Code)
	}
}

func TestAdapterCreateReadDelete(t *testing.T) {
	adapter := NewRecordStoreServerAdapter()
	s := newTestStore(t)

	// Create
	body, _ := json.Marshal(record.Record{"name": "widget", "qty": float64(3)})
	resp := adapter.Handle(common.NewCreateRequest("app-items", body), s)
	if resp.MsgType != common.MsgTRSCreate {
		t.Fatalf("create failed: %s (%s)", resp.MsgType, resp.Err)
	}
	if resp.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	// Read
	resp = adapter.Handle(common.NewReadRequest("app-items", resp.ID), s)
	if resp.MsgType != common.MsgTRSRead {
		t.Fatalf("read failed: %s (%s)", resp.MsgType, resp.Err)
	}
	var rec record.Record
	if err := json.Unmarshal(resp.Value, &rec); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if rec["name"] != "widget" {
		t.Errorf("expected name 'widget', got %v", rec["name"])
	}
	id, ok := rec.ID()
	if !ok {
		t.Fatal("expected record to carry an id")
	}

	// Delete
	resp = adapter.Handle(common.NewDeleteRequest("app-items", id), s)
	if resp.MsgType != common.MsgTRSDelete || !resp.Ok {
		t.Errorf("expected successful delete, got %s ok=%v", resp.MsgType, resp.Ok)
	}

	// Read again, record is gone
	resp = adapter.Handle(common.NewReadRequest("app-items", id), s)
	if resp.Err == "" {
		t.Fatal("expected error response for missing record")
	}
	if store.RetCode(resp.Code) != store.RetCRecordNotFound {
		t.Errorf("expected code %d, got %d", store.RetCRecordNotFound, resp.Code)
	}
}

func TestAdapterGetAllAndCount(t *testing.T) {
	adapter := NewRecordStoreServerAdapter()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		body, _ := json.Marshal(record.Record{"n": float64(i)})
		resp := adapter.Handle(common.NewCreateRequest("app-items", body), s)
		if resp.MsgType != common.MsgTRSCreate {
			t.Fatalf("create failed: %s (%s)", resp.MsgType, resp.Err)
		}
	}

	resp := adapter.Handle(common.NewGetAllRequest("app-items"), s)
	if resp.MsgType != common.MsgTRSGetAll {
		t.Fatalf("getAll failed: %s (%s)", resp.MsgType, resp.Err)
	}
	if len(resp.Values) != 3 || resp.Count != 3 {
		t.Errorf("expected 3 values, got %d (count %d)", len(resp.Values), resp.Count)
	}

	resp = adapter.Handle(common.NewCountRequest("app-items"), s)
	if resp.MsgType != common.MsgTRSCount || resp.Count != 3 {
		t.Errorf("expected count 3, got %s count=%d", resp.MsgType, resp.Count)
	}
}

func TestAdapterInfo(t *testing.T) {
	adapter := NewRecordStoreServerAdapter()
	s := newTestStore(t)

	resp := adapter.Handle(common.NewInfoRequest(), s)
	if resp.MsgType != common.MsgTRSInfo {
		t.Fatalf("info failed: %s (%s)", resp.MsgType, resp.Err)
	}

	var info store.StoreInfo
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		t.Fatalf("failed to decode store info: %v", err)
	}
	if info.Backend != store.BackendMemory {
		t.Errorf("expected memory backend, got %s", info.Backend)
	}
}

func TestAdapterUnsupportedType(t *testing.T) {
	adapter := NewRecordStoreServerAdapter()
	s := newTestStore(t)

	resp := adapter.Handle(&common.Message{MsgType: common.MsgTCustom}, s)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error response, got %s", resp.MsgType)
	}
}
