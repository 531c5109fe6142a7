package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Start request with index specs
		{
			MsgType:  common.MsgTRSStart,
			Database: "app-db",
			Table:    "orders",
			Version:  2,
			Indexes: []record.IndexSpec{
				{Name: "sku-idx", KeyPath: record.KeyPath{"sku"}, Options: map[string]interface{}{"unique": true}},
				{Name: "city-idx", KeyPath: record.KeyPath{"customer.city"}},
			},
		},

		// Create request with a JSON encoded record
		{
			MsgType: common.MsgTRSCreate,
			Table:   "orders",
			Value:   []byte(`{"sku":"a-1","qty":3}`),
		},

		// Read response
		{
			MsgType: common.MsgTRSRead,
			Value:   []byte(`{"id":7,"sku":"a-1"}`),
		},

		// Delete response
		{
			MsgType: common.MsgTRSDelete,
			Ok:      true,
		},

		// GetAll response with multiple records
		{
			MsgType: common.MsgTRSGetAll,
			Values: [][]byte{
				[]byte(`{"id":1}`),
				[]byte(`{"id":2}`),
				[]byte(`{"id":3}`),
			},
			Count: 3,
		},

		// Error response with return code
		{
			MsgType: common.MsgTError,
			Err:     "no record with id 42 in table \"orders\"",
			Code:    5,
		},

		// Message with all fields filled
		{
			MsgType:  common.MsgTRSUpdate,
			Database: "app-db",
			Table:    "orders",
			Version:  3,
			Indexes:  []record.IndexSpec{{Name: "sku-idx", KeyPath: record.KeyPath{"sku"}}},
			ID:       42,
			Value:    []byte(`{"id":42,"sku":"b-2"}`),
			Values:   [][]byte{[]byte(`{"id":42}`)},
			Count:    1,
			Ok:       true,
			Err:      "",
			Meta:     []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty strings and zero values",
			msg: common.Message{
				MsgType:  common.MsgTRSCreate,
				Database: "",
				Table:    "",
				Version:  0,
				ID:       0,
				Value:    []byte{},
				Ok:       false,
				Err:      "",
				Meta:     []byte{},
			},
		},
		{
			name: "Message with empty table but Ok=true",
			msg: common.Message{
				MsgType: common.MsgTRSDelete,
				Table:   "",
				Ok:      true,
				Value:   nil,
			},
		},
		{
			name: "Message with empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTRSCreate,
				Table:   "orders",
				Value:   []byte{},
			},
		},
		{
			name: "Message with empty values list but not nil",
			msg: common.Message{
				MsgType: common.MsgTRSGetAll,
				Values:  [][]byte{},
			},
		},
		{
			name: "Message with empty index spec list but not nil",
			msg: common.Message{
				MsgType: common.MsgTRSStart,
				Indexes: []record.IndexSpec{},
			},
		},
		{
			name: "Message with empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// Verify scalar fields
			if tc.msg.MsgType != result.MsgType {
				t.Errorf("MsgType mismatch: expected %v, got %v", tc.msg.MsgType, result.MsgType)
			}
			if tc.msg.Database != result.Database {
				t.Errorf("Database mismatch: expected '%s', got '%s'", tc.msg.Database, result.Database)
			}
			if tc.msg.Table != result.Table {
				t.Errorf("Table mismatch: expected '%s', got '%s'", tc.msg.Table, result.Table)
			}
			if tc.msg.Version != result.Version {
				t.Errorf("Version mismatch: expected %d, got %d", tc.msg.Version, result.Version)
			}
			if tc.msg.ID != result.ID {
				t.Errorf("ID mismatch: expected %d, got %d", tc.msg.ID, result.ID)
			}
			if tc.msg.Count != result.Count {
				t.Errorf("Count mismatch: expected %d, got %d", tc.msg.Count, result.Count)
			}
			if tc.msg.Ok != result.Ok {
				t.Errorf("Ok mismatch: expected %v, got %v", tc.msg.Ok, result.Ok)
			}
			if tc.msg.Err != result.Err {
				t.Errorf("Err mismatch: expected '%s', got '%s'", tc.msg.Err, result.Err)
			}
			if tc.msg.Code != result.Code {
				t.Errorf("Code mismatch: expected %d, got %d", tc.msg.Code, result.Code)
			}

			// Byte slices may be nil or empty, both must survive as-is
			assertBytesEqual(t, "Value", tc.msg.Value, result.Value)
			assertBytesEqual(t, "Meta", tc.msg.Meta, result.Meta)

			if (tc.msg.Values == nil) != (result.Values == nil) {
				t.Errorf("Values nil/non-nil mismatch: expected %v, got %v", tc.msg.Values, result.Values)
			} else if len(tc.msg.Values) != len(result.Values) {
				t.Errorf("Values length mismatch: expected %d, got %d", len(tc.msg.Values), len(result.Values))
			}

			if (tc.msg.Indexes == nil) != (result.Indexes == nil) {
				t.Errorf("Indexes nil/non-nil mismatch: expected %v, got %v", tc.msg.Indexes, result.Indexes)
			} else if len(tc.msg.Indexes) != len(result.Indexes) {
				t.Errorf("Indexes length mismatch: expected %d, got %d", len(tc.msg.Indexes), len(result.Indexes))
			}
		})
	}
}

// assertBytesEqual compares two byte slices including their nil-ness
func assertBytesEqual(t *testing.T, field string, expected, actual []byte) {
	t.Helper()

	if (expected == nil) != (actual == nil) {
		t.Errorf("%s nil/non-nil mismatch: expected %v, got %v", field, expected, actual)
		return
	}
	if len(expected) != len(actual) {
		t.Errorf("%s length mismatch: expected %d, got %d", field, len(expected), len(actual))
		return
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Errorf("%s content mismatch at index %d", field, i)
			return
		}
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "Empty data",
			data: []byte{},
		},
		{
			name: "Header only",
			data: []byte{byte(common.MsgTRSRead), 0},
		},
		{
			name: "Truncated table length",
			data: []byte{byte(common.MsgTRSRead), 0x00, 0x02, 0x00, 0x00},
		},
		{
			name: "Table length exceeds data",
			data: []byte{byte(common.MsgTRSRead), 0x00, 0x02, 0x00, 0x00, 0x00, 0xFF, 'a'},
		},
		{
			name: "Truncated id",
			data: []byte{byte(common.MsgTRSRead), 0x00, 0x10, 0x00, 0x01},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			if err := serializer.Deserialize(tc.data, &msg); err == nil {
				t.Errorf("Expected error for invalid data, got none (decoded %+v)", msg)
			}
		})
	}
}
