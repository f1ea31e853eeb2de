// Package testing provides a conformance suite for store.IStore implementations.
//
//	func TestLocalStore(t *testing.T) {
//		storetesting.RunStoreTests(t, "lstore", func() store.IStore {
//			return lstore.NewLocalStore(func() db.DB { return maple.NewMapleDB(nil) })
//		})
//	}
package testing
