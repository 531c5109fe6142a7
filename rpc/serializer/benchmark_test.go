package serializer

import (
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	largeRecord := make([]byte, 1024*16) // 16KB of data
	getAllValues := make([][]byte, 100)
	for i := range getAllValues {
		getAllValues[i] = []byte(`{"id":1,"sku":"a-1","qty":3,"owner":{"name":"test","city":"Ulm"}}`)
	}

	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"ReadRequest": {
			MsgType: common.MsgTRSRead,
			Table:   "orders",
			ID:      42,
		},
		"StartRequest": {
			MsgType:  common.MsgTRSStart,
			Database: "app-db",
			Table:    "orders",
			Version:  2,
			Indexes: []record.IndexSpec{
				{Name: "sku-idx", KeyPath: record.KeyPath{"sku"}, Options: map[string]interface{}{"unique": true}},
				{Name: "city-idx", KeyPath: record.KeyPath{"customer.city"}},
			},
		},
		"SmallRecord": {
			MsgType: common.MsgTRSCreate,
			Table:   "orders",
			Value:   []byte(`{"sku":"a"}`),
		},
		"MediumRecord": {
			MsgType: common.MsgTRSCreate,
			Table:   "orders",
			Value:   []byte(`{"sku":"a-1","qty":3,"owner":{"name":"test","city":"Ulm"},"tags":["a","b","c"]}`),
		},
		"LargeRecord": {
			MsgType: common.MsgTRSCreate,
			Table:   "orders",
			Value:   make([]byte, 1024), // 1KB of data
		},
		"VeryLargeRecord": {
			MsgType: common.MsgTRSCreate,
			Table:   "orders",
			Value:   largeRecord,
		},
		"GetAllResponse": {
			MsgType: common.MsgTRSGetAll,
			Values:  getAllValues,
			Count:   uint64(len(getAllValues)),
		},
		"CompleteMessage": {
			MsgType:  common.MsgTRSUpdate,
			Database: "app-db",
			Table:    "orders",
			Version:  3,
			ID:       42,
			Value:    []byte(`{"id":42,"sku":"b-2"}`),
			Count:    1,
			Ok:       true,
			Err:      "This is a test error message",
			Meta:     []byte("test-meta-data-for-benchmarking"),
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Err:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
			Code:    1,
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
