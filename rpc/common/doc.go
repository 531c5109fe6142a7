// Package common provides core data structures shared across the record
// store RPC system. It defines the wire protocol and the configuration
// structures used by both the client and the server packages.
//
// The package focuses on:
//   - Message protocol definition for inter-component communication
//   - Configuration structures for client and server components
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between components,
//     with a flexible structure that adapts to different operation types.
//     Includes factory methods for creating various request and response messages.
//     Records travel as JSON encoded byte slices inside the message so the
//     message itself stays serializer-agnostic. Error responses carry the
//     return code of the failed operation in addition to the error text,
//     which allows clients to rebuild the typed store error on their side.
//
//   - MessageType: Enumeration defining all supported operation types in the
//     system: record store operations plus control messages.
//
//   - ServerConfig: Configuration for server nodes, including the shard
//     layout (shard id to storage backend mapping), storage settings, network
//     configuration and socket tuning parameters.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
package common
