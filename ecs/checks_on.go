//go:build !ecs_nochecks

package ecs

// checks enables precondition validation on hot paths. Build with
// -tags ecs_nochecks to compile the validations out.
const checks = true
