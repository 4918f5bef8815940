package ecs

const (
	// ChunkSize is the size in bytes of every storage chunk.
	ChunkSize = 16 * 1024

	// EntityHeaderSize is the number of bytes preceding the component data of
	// each entity record.
	EntityHeaderSize = 8

	// MaxComponentTypes is the number of distinct component types a
	// TypeRegistry can hold.
	MaxComponentTypes = 256

	// MaxArchetypes is the number of archetypes a single scene can hold,
	// not counting the reserved singleton container.
	MaxArchetypes = 512

	// MaxScenes is the number of scenes a Context can hold.
	MaxScenes = 32

	// MaxSetComponents is the number of component types one archetype or
	// query may name.
	MaxSetComponents = 32

	// MaxLayoutEntries is the capacity of an archetype layout table.
	MaxLayoutEntries = 64

	// MaxLayoutChunks bounds how many chunks a layout may span.
	MaxLayoutChunks = 4

	// MaxInnerKey is the largest inner key an archetype can mint.
	MaxInnerKey = 1<<innerKeyBits - 1

	// DefaultChunkPoolCapacity is the number of free chunks kept for reuse.
	DefaultChunkPoolCapacity = 25

	// InlineRemoveThreshold is the pending removal count below which
	// Scene.Complete compacts an archetype on the calling goroutine.
	InlineRemoveThreshold = 32
)

const (
	innerKeyBits = 23

	chunkListGrowth = 32
	keyMaskGrowth   = 1024

	singletonArchetypeID = 0
)

// alignUp rounds n up to the next multiple of 8.
func alignUp(n int) int {
	return (n + 7) &^ 7
}
