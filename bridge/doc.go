// Package bridge implements the helper operations a sandboxed todo plugin calls on
// its host: reading and writing files, and storing todo payloads in a key/value store.
//
// # Overview
//
// A [Bridge] is built from explicit dependencies rather than reaching for globals:
//
//	b, err := bridge.New(bridge.Deps{
//	    Paths: hostpath.Dirs{},
//	    Store: kvstore.NewMemory(kvstore.DefaultConfig()),
//	    FS:    fsys.NewOS(),
//	})
//
// Every Bridge method returns an explicit error. [Services] wraps a Bridge with the
// plugin-facing contract, where failures become safe defaults ("", "[]", false) and are
// logged instead of returned, and registers each operation by name:
//
//	registry := hostfunc.NewRegistry()
//	bridge.NewServices(b).Register(registry)
//
// # Legacy migration
//
// Older plugin versions kept the todo list in todos.json under the user data
// directory. [Bridge.ReadTodos] prefers the key/value store and, when the key is
// absent, serves the legacy file and copies it into the store. The copy is best
// effort: a failure is logged and the legacy text is still returned. What happens to
// the legacy file afterwards is chosen with [WithLegacyPolicy].
package bridge
