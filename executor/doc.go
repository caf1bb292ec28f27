// Package executor runs plugin scripts inside a wazero sandbox and serves their
// host calls from a [hostfunc.Registry].
//
// A script has no filesystem, network or clock access of its own. Everything it
// needs from the host goes through the call protocol: the script writes
//
//	\x00BRIDGE:{"fn":"readTodos","args":{}}\x00
//
// to stderr and reads one JSON line {"data":...} or {"error":"..."} back from
// stdin. Anything else written to stderr is kept as ordinary output.
//
//	exec, err := executor.New(registry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close()
//
//	result := exec.Run(ctx, js, `console.log(services.readTodos())`)
//	fmt.Println(result.Output)
package executor
