// Package client implements the RPC client for the record store system.
// It provides an implementation of the store.IRecordStore interface that
// communicates with a remote server via RPC.
//
// The package focuses on:
//   - Transparent RPC access to record store implementations
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCRecordStore: Factory function that creates a client implementing the
//     store.IRecordStore interface. This client forwards all operations to a remote
//     server shard via the configured transport layer.
//
// Error responses from the server carry the store error code, so store.CodeOf
// works on errors returned by the client exactly as it does for local backends.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create a store client for shard 1
//	rs, _ := client.NewRPCRecordStore(1, config, tcp.NewTCPClientTransport(), serializer, nil)
//
//	// Use the store
//	rs.Start("app-db", "app-users", record.Index("email"))
//	id, _ := rs.Create("app-users", record.Record{"email": "alice@example.com"})
//	rec, _ := rs.Read("app-users", id)
//
// Performance Considerations:
//
//   - For applications that frequently send large records, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple
//	goroutines without additional synchronization.
package client
