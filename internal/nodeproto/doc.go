// Package nodeproto recognises references to Node.js built-in modules in
// import, re-export, import() and require() forms and checks them against the
// node: protocol policy of the run.
//
// The package is pure: it reads syntax nodes and a builtins.Registry and
// returns findings with a single text edit each. Reporting and applying the
// edits is left to the caller.
package nodeproto
