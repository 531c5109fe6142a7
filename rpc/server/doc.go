// Package server implements the RPC server for the record store system.
// It provides the adapter for handling record store RPC requests, along with
// the core server implementation that manages shards and request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for record store operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with volatile and durable backends
//   - Lazy creation of record stores based on the first Start request
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     store.IRecordStore.
//
//   - NewRecordStoreServerAdapter: Factory function creating an adapter for
//     record store operations, translating RPC requests to store.IRecordStore
//     method calls. Records travel as JSON inside the messages and are decoded
//     before they reach the store.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Backend: common.ShardBackendMemory},
//	    {ShardID: 200, Backend: common.ShardBackendSQLite},
//	  },
//	  DataDir: "data",
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of shards, which can be mixed within a single server:
//
//   - ShardBackendMemory: A volatile in-memory record store. All records are
//     lost when the shard is closed or the server stops.
//
//   - ShardBackendSQLite: A durable sqlite backed record store. Each shard
//     gets its own directory below DataDir so shards never share database
//     files.
//
// The record store of a shard is created lazily: the first Start request
// decides the schema version the shard runs at. Start requests for a
// different version are refused until the shard's store is closed again.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Listen method is not thread-safe and should be called only once.
package server
