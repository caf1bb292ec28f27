// Package hostfunc holds the named host functions a sandboxed plugin can call.
//
// A [Func] takes decoded JSON arguments and returns a JSON-encodable result.
// The [Registry] is shared by every transport that reaches the host: the
// executor's call protocol, the HTTP server and the CLI.
//
//	registry := hostfunc.NewRegistry()
//	registry.Register("greet", func(ctx context.Context, args map[string]any) (any, error) {
//	    name, err := hostfunc.StringArg(args, "name")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return "hello " + name, nil
//	})
//
//	v, err := registry.Call(ctx, "greet", map[string]any{"name": "world"})
package hostfunc
