//go:build ecs_nochecks

package ecs

const checks = false
