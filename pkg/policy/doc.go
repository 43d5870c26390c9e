// Package policy narrows enumerated variations with Rego policies evaluated by
// an embedded Open Policy Agent (OPA) engine.
//
// Each variation is offered to the policy as
//
//	{"slots": [v0, v1, v2, v3, v4], "total": sum}
//
// and kept when the configured entrypoint evaluates to true. An undefined
// result denies the variation.
package policy
