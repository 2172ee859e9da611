// Package protocol defines the JSON messages exchanged between the tau
// runtime and its clients.
//
// # Outbound
//
// Every server message is a JSON object with a "type" tag:
//
//	{"type":"update_text","id":"tau_3","value":"Count: 4"}
//	{"type":"update_input","id":"tau_5","value":"Ada"}
//	{"type":"replace","id":"tau_1","html":"<div ...>...</div>"}
//	{"type":"set_theme","theme":"dark"}
//	{"type":"hot_reload","message":"reloading"}
//	{"type":"hmr_error","message":"E200: Build failed ..."}
//
// # Inbound
//
// Clients send click and input events addressed by widget id:
//
//	{"type":"click","id":"tau_4"}
//	{"type":"input","id":"tau_5","value":"Ada"}
//
// Any other type is ignored by the runtime.
package protocol
