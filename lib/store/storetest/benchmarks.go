package storetest

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/dRS/lib/record"
	"github.com/ValentinKolb/dRS/lib/store"
)

// RunRecordStoreBenchmarks runs all benchmarks for an IRecordStore
// implementation.
func RunRecordStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Create", func(b *testing.B) {
			benchmarkCreate(b, factory())
		})

		b.Run("CreateLargeRecord", func(b *testing.B) {
			benchmarkCreateLargeRecord(b, factory())
		})

		b.Run("Read", func(b *testing.B) {
			benchmarkRead(b, factory())
		})

		b.Run("Update", func(b *testing.B) {
			benchmarkUpdate(b, factory())
		})

		b.Run("GetAll", func(b *testing.B) {
			benchmarkGetAll(b, factory())
		})

		b.Run("Count", func(b *testing.B) {
			benchmarkCount(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prepare starts a fresh table and aborts the benchmark on failure
func prepare(b *testing.B, s store.IRecordStore) string {
	b.Helper()
	b.Cleanup(func() {
		_ = s.Close()
	})

	table := nextTable()
	mustStart(b, s, table)
	return table
}

func benchmarkCreate(b *testing.B, s store.IRecordStore) {
	table := prepare(b, s)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Create(table, record.Record{
			"sku":   fmt.Sprintf("sku-%d", i),
			"stock": i,
		}); err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}
}

func benchmarkCreateLargeRecord(b *testing.B, s store.IRecordStore) {
	table := prepare(b, s)

	// a record with a large payload field (~64 KB)
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	blob := string(payload)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Create(table, record.Record{"blob": blob, "n": i}); err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}
}

func benchmarkRead(b *testing.B, s store.IRecordStore) {
	table := prepare(b, s)

	const numRecords = 1000
	for i := 0; i < numRecords; i++ {
		mustCreate(b, s, table, record.Record{"n": i})
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			id := uint64(counter%numRecords) + 1
			if _, err := s.Read(table, id); err != nil {
				b.Errorf("Read failed: %v", err)
				return
			}
			counter++
		}
	})
}

func benchmarkUpdate(b *testing.B, s store.IRecordStore) {
	table := prepare(b, s)

	const numRecords = 1000
	for i := 0; i < numRecords; i++ {
		mustCreate(b, s, table, record.Record{"n": i})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := uint64(i%numRecords) + 1
		if _, err := s.Update(table, record.Record{record.IDField: id, "n": i}); err != nil {
			b.Fatalf("Update failed: %v", err)
		}
	}
}

func benchmarkGetAll(b *testing.B, s store.IRecordStore) {
	table := prepare(b, s)

	const numRecords = 1000
	for i := 0; i < numRecords; i++ {
		mustCreate(b, s, table, record.Record{"n": i})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		recs, err := s.GetAll(table)
		if err != nil {
			b.Fatalf("GetAll failed: %v", err)
		}
		if len(recs) != numRecords {
			b.Fatalf("Expected %d records, got %d", numRecords, len(recs))
		}
	}
}

func benchmarkCount(b *testing.B, s store.IRecordStore) {
	table := prepare(b, s)

	const numRecords = 1000
	for i := 0; i < numRecords; i++ {
		mustCreate(b, s, table, record.Record{"n": i})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.CountRecords(table); err != nil {
			b.Fatalf("CountRecords failed: %v", err)
		}
	}
}

func benchmarkMixedUsage(b *testing.B, s store.IRecordStore) {
	table := prepare(b, s)

	// seed some records so reads hit something
	const seed = 100
	for i := 0; i < seed; i++ {
		mustCreate(b, s, table, record.Record{"n": i})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		switch i % 10 {
		case 0, 1, 2: // 30% creates
			if _, err := s.Create(table, record.Record{"n": i}); err != nil {
				b.Fatalf("Create failed: %v", err)
			}
		case 3: // 10% updates
			id := uint64(i%seed) + 1
			if _, err := s.Update(table, record.Record{record.IDField: id, "n": i}); err != nil {
				b.Fatalf("Update failed: %v", err)
			}
		default: // 60% reads
			id := uint64(i%seed) + 1
			if _, err := s.Read(table, id); err != nil {
				b.Fatalf("Read failed: %v", err)
			}
		}
	}
}
