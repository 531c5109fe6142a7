package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Database string             `json:"database,omitempty"` // Used for: Start
	Table    string             `json:"table,omitempty"`    // Used for: all record operations
	Version  uint64             `json:"version,omitempty"`  // Used for: Start (requested schema version)
	Indexes  []record.IndexSpec `json:"indexes,omitempty"`  // Used for: Start
	ID       uint64             `json:"id,omitempty"`       // Used for: Read, Delete (request), Create, Update (response)
	Value    []byte             `json:"value,omitempty"`    // JSON encoded record (Create, Update, Read) or store info (Info)
	Values   [][]byte           `json:"values,omitempty"`   // Used for: GetAll response, one JSON encoded record each
	Count    uint64             `json:"count,omitempty"`    // Used for: Count response

	// Response only fields
	Ok   bool   `json:"ok,omitempty"`   // Used for: Delete response (record was present)
	Err  string `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message
	Code uint64 `json:"code,omitempty"` // Return code of the operation, see store.RetCode

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// setError copies the error message and return code into the message. The
// code travels with every error response so clients can rebuild the typed
// store error on their side.
func (m *Message) setError(err error) {
	if err != nil {
		m.Err = err.Error()
		m.Code = uint64(store.CodeOf(err))
	}
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewStartRequest creates a new Start request
func NewStartRequest(database, table string, version uint64, indexes []record.IndexSpec) *Message {
	return &Message{
		MsgType:  MsgTRSStart,
		Database: database,
		Table:    table,
		Version:  version,
		Indexes:  indexes,
	}
}

// NewStartResponse creates a new Start response
func NewStartResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTRSStart,
	}
	msg.setError(err)
	return msg
}

// NewCreateRequest creates a new Create request. The value must be the JSON
// encoded record, including an explicit id if the caller chose one.
func NewCreateRequest(table string, value []byte) *Message {
	return &Message{
		MsgType: MsgTRSCreate,
		Table:   table,
		Value:   value,
	}
}

// NewCreateResponse creates a new Create response
func NewCreateResponse(id uint64, err error) *Message {
	msg := &Message{
		MsgType: MsgTRSCreate,
		ID:      id,
	}
	msg.setError(err)
	return msg
}

// NewReadRequest creates a new Read request
func NewReadRequest(table string, id uint64) *Message {
	return &Message{
		MsgType: MsgTRSRead,
		Table:   table,
		ID:      id,
	}
}

// NewReadResponse creates a new Read response
func NewReadResponse(value []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTRSRead,
		Value:   value,
	}
	msg.setError(err)
	return msg
}

// NewUpdateRequest creates a new Update request. The value must be the JSON
// encoded record including its id.
func NewUpdateRequest(table string, value []byte) *Message {
	return &Message{
		MsgType: MsgTRSUpdate,
		Table:   table,
		Value:   value,
	}
}

// NewUpdateResponse creates a new Update response
func NewUpdateResponse(id uint64, err error) *Message {
	msg := &Message{
		MsgType: MsgTRSUpdate,
		ID:      id,
	}
	msg.setError(err)
	return msg
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(table string, id uint64) *Message {
	return &Message{
		MsgType: MsgTRSDelete,
		Table:   table,
		ID:      id,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(found bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTRSDelete,
		Ok:      found,
	}
	msg.setError(err)
	return msg
}

// NewGetAllRequest creates a new GetAll request
func NewGetAllRequest(table string) *Message {
	return &Message{
		MsgType: MsgTRSGetAll,
		Table:   table,
	}
}

// NewGetAllResponse creates a new GetAll response with one JSON encoded
// record per value
func NewGetAllResponse(values [][]byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTRSGetAll,
		Values:  values,
		Count:   uint64(len(values)),
	}
	msg.setError(err)
	return msg
}

// NewCountRequest creates a new Count request
func NewCountRequest(table string) *Message {
	return &Message{
		MsgType: MsgTRSCount,
		Table:   table,
	}
}

// NewCountResponse creates a new Count response
func NewCountResponse(count uint64, err error) *Message {
	msg := &Message{
		MsgType: MsgTRSCount,
		Count:   count,
	}
	msg.setError(err)
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTRSInfo,
	}
}

// NewInfoResponse creates a new Info response with the JSON encoded
// store.StoreInfo as value
func NewInfoResponse(value []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTRSInfo,
		Value:   value,
	}
	msg.setError(err)
	return msg
}

// NewCloseRequest creates a new Close request
func NewCloseRequest() *Message {
	return &Message{
		MsgType: MsgTRSClose,
	}
}

// NewCloseResponse creates a new Close response
func NewCloseResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTRSClose,
	}
	msg.setError(err)
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	msg.setError(err)
	return msg
}

// NewErrorResponse creates a new Error response with an explicit return code
func NewErrorResponse(err string, code store.RetCode) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		Code:    uint64(code),
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRSStart:
		return "start"
	case MsgTRSCreate:
		return "create"
	case MsgTRSRead:
		return "read"
	case MsgTRSUpdate:
		return "update"
	case MsgTRSDelete:
		return "delete"
	case MsgTRSGetAll:
		return "getAll"
	case MsgTRSCount:
		return "count"
	case MsgTRSInfo:
		return "info"
	case MsgTRSClose:
		return "close"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "start":
		*t = MsgTRSStart
	case "create":
		*t = MsgTRSCreate
	case "read":
		*t = MsgTRSRead
	case "update":
		*t = MsgTRSUpdate
	case "delete":
		*t = MsgTRSDelete
	case "getAll":
		*t = MsgTRSGetAll
	case "count":
		*t = MsgTRSCount
	case "info":
		*t = MsgTRSInfo
	case "close":
		*t = MsgTRSClose
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IRecordStore operations

	MsgTRSStart  // Open or create a table schema
	MsgTRSCreate // Create a record
	MsgTRSRead   // Read a record by id
	MsgTRSUpdate // Update an existing record
	MsgTRSDelete // Delete a record by id
	MsgTRSGetAll // List all records of a table
	MsgTRSCount  // Count the records of a table
	MsgTRSInfo   // Fetch backend metadata
	MsgTRSClose  // Close the store of the shard

	// Custom operations

	MsgTCustom // Custom operation type
)
