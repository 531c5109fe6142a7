package serializer

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasDatabase uint16 = 1 << 0
	hasTable    uint16 = 1 << 1
	hasVersion  uint16 = 1 << 2
	hasIndexes  uint16 = 1 << 3
	hasID       uint16 = 1 << 4
	hasValue    uint16 = 1 << 5
	hasValues   uint16 = 1 << 6
	hasCount    uint16 = 1 << 7
	hasOk       uint16 = 1 << 8
	hasErr      uint16 = 1 << 9
	hasCode     uint16 = 1 << 10
	hasMeta     uint16 = 1 << 11
)

// headerSize is the fixed prefix: 1 byte MsgType + 2 bytes field flags
const headerSize = 3

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Index specs have a dynamic shape, they travel as one JSON blob
	var indexBlob []byte
	if msg.Indexes != nil {
		var err error
		indexBlob, err = json.Marshal(msg.Indexes)
		if err != nil {
			return nil, err
		}
	}

	// Calculate total size needed
	totalSize := b.sizeBytes(msg, indexBlob)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags
	var flags uint16 = 0

	// Set position for writing
	pos := headerSize

	// Handle Database
	if msg.Database != "" {
		flags |= hasDatabase
		pos = writeBytes(result, pos, []byte(msg.Database))
	}

	// Handle Table
	if msg.Table != "" {
		flags |= hasTable
		pos = writeBytes(result, pos, []byte(msg.Table))
	}

	// Handle Version
	if msg.Version > 0 {
		flags |= hasVersion
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Version)
		pos += 8
	}

	// Handle Indexes
	if msg.Indexes != nil {
		flags |= hasIndexes
		pos = writeBytes(result, pos, indexBlob)
	}

	// Handle ID
	if msg.ID > 0 {
		flags |= hasID
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.ID)
		pos += 8
	}

	// Handle Value
	if msg.Value != nil {
		flags |= hasValue
		pos = writeBytes(result, pos, msg.Value)
	}

	// Handle Values
	if msg.Values != nil {
		flags |= hasValues
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Values)))
		pos += 4
		for _, v := range msg.Values {
			pos = writeBytes(result, pos, v)
		}
	}

	// Handle Count
	if msg.Count > 0 {
		flags |= hasCount
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Count)
		pos += 8
	}

	// Handle Ok
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		pos = writeBytes(result, pos, []byte(msg.Err))
	}

	// Handle Code
	if msg.Code > 0 {
		flags |= hasCode
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Code)
		pos += 8
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		pos = writeBytes(result, pos, msg.Meta)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type and flags
	msg.MsgType = common.MessageType(data[0])
	flags := binary.BigEndian.Uint16(data[1:3])

	// Initialize read position
	pos := headerSize

	// Read Database if present
	if flags&hasDatabase != 0 {
		raw, next, err := readBytes(data, pos, "database")
		if err != nil {
			return err
		}
		msg.Database = string(raw)
		pos = next
	} else {
		msg.Database = ""
	}

	// Read Table if present
	if flags&hasTable != 0 {
		raw, next, err := readBytes(data, pos, "table")
		if err != nil {
			return err
		}
		msg.Table = string(raw)
		pos = next
	} else {
		msg.Table = ""
	}

	// Read Version if present
	if flags&hasVersion != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for version")
		}
		msg.Version = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Version = 0
	}

	// Read Indexes if present
	if flags&hasIndexes != 0 {
		raw, next, err := readBytes(data, pos, "indexes")
		if err != nil {
			return err
		}
		var specs []record.IndexSpec
		if err := json.Unmarshal(raw, &specs); err != nil {
			return fmt.Errorf("failed to decode index specs: %v", err)
		}
		msg.Indexes = specs
		pos = next
	} else {
		msg.Indexes = nil
	}

	// Read ID if present
	if flags&hasID != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for id")
		}
		msg.ID = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.ID = 0
	}

	// Read Value if present
	if flags&hasValue != 0 {
		raw, next, err := readBytes(data, pos, "value")
		if err != nil {
			return err
		}
		msg.Value = make([]byte, len(raw))
		copy(msg.Value, raw)
		pos = next
	} else {
		msg.Value = nil
	}

	// Read Values if present
	if flags&hasValues != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for values count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		values := make([][]byte, count)
		for i := range values {
			raw, next, err := readBytes(data, pos, "values element")
			if err != nil {
				return err
			}
			values[i] = make([]byte, len(raw))
			copy(values[i], raw)
			pos = next
		}
		msg.Values = values
	} else {
		msg.Values = nil
	}

	// Read Count if present
	if flags&hasCount != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for count")
		}
		msg.Count = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Count = 0
	}

	// Read Ok if present
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	} else {
		msg.Ok = false
	}

	// Read Err if present
	if flags&hasErr != 0 {
		raw, next, err := readBytes(data, pos, "error")
		if err != nil {
			return err
		}
		msg.Err = string(raw)
		pos = next
	} else {
		msg.Err = ""
	}

	// Read Code if present
	if flags&hasCode != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for code")
		}
		msg.Code = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Code = 0
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		raw, next, err := readBytes(data, pos, "meta")
		if err != nil {
			return err
		}
		msg.Meta = make([]byte, len(raw))
		copy(msg.Meta, raw)
		pos = next
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// writeBytes writes a length-prefixed byte slice and returns the new position
func writeBytes(dst []byte, pos int, data []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(data)))
	pos += 4
	copy(dst[pos:pos+len(data)], data)
	return pos + len(data)
}

// readBytes reads a length-prefixed byte slice and returns it together with
// the new position
func readBytes(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s length", field)
	}
	length := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4

	if pos+int(length) > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+int(length)], pos + int(length), nil
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message, indexBlob []byte) int {
	size := headerSize

	// Add sizes for fields that require length encoding
	if msg.Database != "" {
		size += 4 + len(msg.Database)
	}
	if msg.Table != "" {
		size += 4 + len(msg.Table)
	}
	if msg.Version > 0 {
		size += 8 // uint64
	}
	if msg.Indexes != nil {
		size += 4 + len(indexBlob)
	}
	if msg.ID > 0 {
		size += 8 // uint64
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Values != nil {
		size += 4 // element count
		for _, v := range msg.Values {
			size += 4 + len(v)
		}
	}
	if msg.Count > 0 {
		size += 8 // uint64
	}
	if msg.Ok {
		size += 1 // 1 byte for boolean
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Code > 0 {
		size += 8 // uint64
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}
