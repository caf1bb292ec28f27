// Package todobridge is the host side of the todo plugin: a small set of
// services the plugin calls to persist its lists, settings and archive, export
// text and images, and learn whether cloud sync has finished.
//
// # Overview
//
// The [bridge] package holds the operations. A Bridge is built from explicit
// dependencies: a directory resolver, a key/value store, a filesystem and an
// optional replication signal. Todo lists live in the store; a todos.json left
// by older plugin versions is migrated on first read.
//
// # Basic Usage
//
//	store, _ := kvstore.OpenSQLite(hostpath.DefaultUserData())
//	defer store.Close()
//
//	b, _ := bridge.New(bridge.Deps{
//	    Paths: hostpath.Dirs{
//	        Downloads: hostpath.DefaultDownloads(),
//	        UserData:  hostpath.DefaultUserData(),
//	    },
//	    Store: store,
//	    FS:    fsys.NewOS(),
//	})
//
//	_ = b.WriteTodos(ctx, `[{"title":"milk"}]`)
//	todos, _ := b.ReadTodos(ctx)
//
// # Plugin Scripts
//
// [bridge.Services] exposes the operations under the names the plugin uses and
// registers them in a [hostfunc.Registry]. The [executor] runs a plugin script in
// a wazero sandbox where those names are reachable through a global services
// object:
//
//	registry := hostfunc.NewRegistry()
//	bridge.NewServices(b).Register(registry)
//
//	exec, _ := executor.New(registry)
//	defer exec.Close()
//
//	result := exec.Run(ctx, javascript.New(), `console.log(services.readTodos())`)
//
// # Replication
//
// Wrapping the store in a [replica.Replica] publishes every write to a directory
// shared between devices and applies what other devices publish there. The
// replica doubles as the bridge's replication signal.
//
// See the [bridge], [executor], [kvstore], [replica] and [language/javascript]
// packages for detailed API documentation, and cmd/todobridge for the CLI.
package todobridge
