package server

import (
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dRS/lib/logger"
	"github.com/ValentinKolb/dRS/lib/store"
	"github.com/ValentinKolb/dRS/lib/store/mstore"
	"github.com/ValentinKolb/dRS/lib/store/sstore"
	"github.com/ValentinKolb/dRS/rpc/common"
	"github.com/ValentinKolb/dRS/rpc/serializer"
	"github.com/ValentinKolb/dRS/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc/server")

// --------------------------------------------------------------------------
// Server Shards
// --------------------------------------------------------------------------

// serverShard is a single shard of the RPC server. It owns one record store
// plus the adapter that translates messages into store calls. The store is
// created lazily on the first Start request since that request carries the
// schema version the clients want to run at.
type serverShard struct {
	shardID uint64
	backend common.ServerShardBackend
	factory store.AdapterFactory
	adapter IRPCServerAdapter

	mu      sync.Mutex
	version uint64
	store   store.IRecordStore
}

// storeFor returns the record store of the shard, creating it at the given
// schema version on the first Start request. Once created, Start requests
// for a different version are refused until the store is closed.
func (sh *serverShard) storeFor(version uint64) (store.IRecordStore, error) {
	if version == 0 {
		version = 1
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.store == nil {
		sh.store = store.NewRecordStore(sh.factory, &store.Options{SchemaVersion: version})
		sh.version = version
		Logger.Infof("created %s record store for shard %d at schema version %d", sh.backend, sh.shardID, version)
		return sh.store, nil
	}

	if version != sh.version {
		return nil, store.NewErrorf(store.RetCBlocked,
			"shard %d already serves schema version %d, close it before starting at version %d",
			sh.shardID, sh.version, version)
	}

	return sh.store, nil
}

// current returns the shard's record store, or nil if no Start request has
// created one yet
func (sh *serverShard) current() store.IRecordStore {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.store
}

// reset drops the record store so a later Start request can create a fresh
// one, possibly at a different schema version
func (sh *serverShard) reset() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.store = nil
	sh.version = 0
}

// --------------------------------------------------------------------------
// RPC Server
// --------------------------------------------------------------------------

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, *serverShard]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, *serverShard]
}

func (s *rpcServer) registerTransportHandler() {
	requestDuration := metrics.GetOrCreateHistogram("drs_rpc_request_duration_seconds")

	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		start := time.Now()
		defer requestDuration.UpdateDuration(start)

		var msg common.Message
		var respMsg common.Message

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = *common.NewErrorResponse("shard not found", store.RetCInternalError)
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = *common.NewErrorResponse(
				fmt.Sprintf("failed to deserialize request: %s", err),
				store.RetCInternalError,
			)
		} else {
			respMsg = *s.dispatch(shard, &msg)
		}

		metrics.GetOrCreateCounter(fmt.Sprintf(`drs_rpc_requests_total{shard=%q}`, fmt.Sprint(shardId))).Inc()
		if respMsg.Err != "" {
			metrics.GetOrCreateCounter(fmt.Sprintf(`drs_rpc_request_errors_total{shard=%q}`, fmt.Sprint(shardId))).Inc()
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %s", err)
			return nil
		}
		return val
	})
}

// dispatch resolves the record store of the shard and lets the adapter
// handle the request
func (s *rpcServer) dispatch(shard *serverShard, msg *common.Message) *common.Message {
	switch msg.MsgType {
	case common.MsgTRSStart:
		// The first Start request decides the schema version of the shard
		st, err := shard.storeFor(msg.Version)
		if err != nil {
			return common.NewErrorResponse(err.Error(), store.CodeOf(err))
		}
		return shard.adapter.Handle(msg, st)

	case common.MsgTRSClose:
		// Closing an idle shard is a no-op, like closing an idle store
		st := shard.current()
		if st == nil {
			return common.NewCloseResponse(nil)
		}
		resp := shard.adapter.Handle(msg, st)
		if resp.Err == "" {
			shard.reset()
		}
		return resp

	default:
		st := shard.current()
		if st == nil {
			return common.NewErrorResponse(
				fmt.Sprintf("shard %d is not started - send a start request first", shard.shardID),
				store.RetCConnNotInitialized,
			)
		}
		return shard.adapter.Handle(msg, st)
	}
}

func (s *rpcServer) init() error {

	// Init logger
	if s.config.LogLevel != "" {
		if err := logger.SetLevel(s.config.LogLevel); err != nil {
			return err
		}
	}

	// CREATE SHARDS

	/*
		Note: A single RPC Server can have any number of shards, each backed
		by either the volatile or the durable storage backend. The following
		loop creates all the shards and stores them for the RPC server. The
		record store of each shard is created lazily on the first Start
		request, see serverShard.storeFor.
	*/

	for _, shardConfig := range s.config.Shards {
		var factory store.AdapterFactory

		switch shardConfig.Backend {
		case common.ShardBackendMemory:
			factory = mstore.NewMemoryAdapter
		case common.ShardBackendSQLite:
			// Every sqlite shard gets its own directory so shards never
			// contend for the same database files
			dir := filepath.Join(s.config.DataDir, fmt.Sprintf("shard-%d", shardConfig.ShardID))
			factory = func() store.IStoreAdapter { return sstore.NewSQLiteAdapter(dir) }
		default:
			return fmt.Errorf("invalid shard backend: %s (expected one of: %s, %s)",
				shardConfig.Backend, common.ShardBackendMemory, common.ShardBackendSQLite)
		}

		s.shards.Store(shardConfig.ShardID, &serverShard{
			shardID: shardConfig.ShardID,
			backend: shardConfig.Backend,
			factory: factory,
			adapter: NewRecordStoreServerAdapter(),
		})
		Logger.Infof("registered %s shard %d", shardConfig.Backend, shardConfig.ShardID)
	}

	// Start the metrics endpoint if configured
	if s.config.MetricsEndpoint != "" {
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
				metrics.WritePrometheus(w, true)
			})
			Logger.Infof("Starting metrics server on %s", s.config.MetricsEndpoint)
			if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil {
				Logger.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	Logger.Infof("dRS setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
