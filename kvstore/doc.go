// Package kvstore provides the key/value backends the bridge stores todo payloads in.
//
// Values are JSON documents held as [json.RawMessage]. A missing key is reported
// through the boolean result of [Store.Get], never as an error.
//
// # Backends
//
// [Memory] keeps records in a map and enforces size limits:
//
//	kv := kvstore.NewMemory(kvstore.DefaultConfig())
//
// [SQLite] persists records in a single table:
//
//	kv, err := kvstore.OpenSQLite("/path/to/data")
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//
// Pass ":memory:" to OpenSQLite for a throwaway database.
package kvstore
