// Package lua runs user key hooks written in Lua.
//
// A hook script runs in a sandboxed gopher-lua state with only the base,
// table, string and math libraries. It may define two global functions:
//
//	function on_key(pos, pressed)
//	    -- return true to swallow the event, or a number to move it
//	    -- to another position
//	end
//
//	function on_action(expr, pressed)
//	    -- expr is the resolved action, e.g. "LCTL(KC_X)"
//	    -- return true to swallow it
//	end
//
// The keyflow module is available as a global:
//
//	keyflow.log("text")       -- info log line through the host logger
//	keyflow.layers()          -- active layer names, lowest first
//
// Every call runs under a deadline; a script that overruns it is
// interrupted and the event passes through untouched.
package lua
