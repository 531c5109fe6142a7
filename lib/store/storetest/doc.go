/*
Package storetest provides a conformance test suite and benchmarks for
IRecordStore implementations.

The suite pins the shared CRUD contract: error taxonomy, identifier
allocation (ids start at 1, increase by exactly 1 per create, never rewind
on delete), no-upsert updates, caller isolation, idempotent Close and
restartability. The few deliberate differences between the backends are
declared through the Expectations struct instead of being special-cased
inside the tests.

Both adapter packages hook the suite into their own tests:

	func TestRecordStoreConformance(t *testing.T) {
		storetest.RunRecordStoreTests(t, "mstore", factory, storetest.Expectations{
			Backend:          store.BackendMemory,
			UnknownTableCode: store.RetCTableNotInitialized,
		})
	}

Third-party adapter implementations can do the same.
*/
package storetest
