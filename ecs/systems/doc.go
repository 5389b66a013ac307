// Package systems provides reusable ecs.System building blocks.
//
// Each block keys an engine registration by its concrete type, so embed the
// block's pointer type in a struct of your own to register several of the
// same kind:
//
//	type Mover struct{ *systems.Iterating }
package systems
