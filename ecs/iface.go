package ecs

import (
	"reflect"
	"unsafe"
)

// iface represents the internal memory layout of an interface{}.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// typeKey returns the address of the runtime type descriptor behind t. It is
// unique and stable per Go type for the life of the process.
func typeKey(t reflect.Type) uintptr {
	return uintptr((*iface)(unsafe.Pointer(&t)).data)
}

// typeSlot spreads a type key over a table of n slots, n a power of two.
func typeSlot(key uintptr, n int) int {
	h := uint64(key) * 0x9E3779B97F4A7C15
	return int(h>>32) & (n - 1)
}
