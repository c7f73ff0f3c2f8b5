package builtins

import "sync"

// nodeBuiltinModules mirrors module.builtinModules of Node.js 24, private
// `_` modules and subpath entries included. The node:-only modules at the end
// are listed there since Node.js 23.5; older runtimes omit them.
//
// To refresh, run:
//
//	node -p "require('module').builtinModules.join('\n')"
var nodeBuiltinModules = []string{
	"_http_agent",
	"_http_client",
	"_http_common",
	"_http_incoming",
	"_http_outgoing",
	"_http_server",
	"_stream_duplex",
	"_stream_passthrough",
	"_stream_readable",
	"_stream_transform",
	"_stream_wrap",
	"_stream_writable",
	"_tls_common",
	"_tls_wrap",
	"assert",
	"assert/strict",
	"async_hooks",
	"buffer",
	"child_process",
	"cluster",
	"console",
	"constants",
	"crypto",
	"dgram",
	"diagnostics_channel",
	"dns",
	"dns/promises",
	"domain",
	"events",
	"fs",
	"fs/promises",
	"http",
	"http2",
	"https",
	"inspector",
	"inspector/promises",
	"module",
	"net",
	"os",
	"path",
	"path/posix",
	"path/win32",
	"perf_hooks",
	"process",
	"punycode",
	"querystring",
	"readline",
	"readline/promises",
	"repl",
	"stream",
	"stream/consumers",
	"stream/promises",
	"stream/web",
	"string_decoder",
	"sys",
	"timers",
	"timers/promises",
	"tls",
	"trace_events",
	"tty",
	"url",
	"util",
	"util/types",
	"v8",
	"vm",
	"wasi",
	"worker_threads",
	"zlib",

	// только со схемой node:
	"node:sea",
	"node:sqlite",
	"node:test",
	"node:test/reporters",
}

var (
	embeddedOnce sync.Once
	embedded     *Registry
)

// Embedded returns the registry compiled into the binary. The same instance
// is returned on every call.
func Embedded() *Registry {
	embeddedOnce.Do(func() {
		embedded = New(nodeBuiltinModules...)
	})
	return embedded
}
