package collision

// Handle is a generation-checked reference into the world's body table. A
// handle kept past its body's destruction resolves to nothing rather than to
// whatever body reused the slot.
type Handle struct {
	index      uint32
	generation uint32
}

// NoHandle is the zero handle; it never resolves.
var NoHandle = Handle{}

func (h Handle) Valid() bool {
	return h.generation != 0
}

func (h Handle) Index() uint32 {
	return h.index
}
