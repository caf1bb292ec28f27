package hostfunc

// Argument keys shared by the bridge services and the plugin-side prelude.
const (
	ArgPath    = "path"
	ArgText    = "text"
	ArgDataURL = "dataUrl"
	ArgJSON    = "json"
)
