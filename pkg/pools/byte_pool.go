package pools

// BytePool pools byte slices used to encode and decode record blocks.
type BytePool = SlicePool[byte]

// NewBytePool creates a new byte pool.
func NewBytePool() *BytePool {
	return NewSlicePool[byte]()
}

// Default global byte pool
var defaultBytePool = NewBytePool()

// GetBytes returns a byte slice from the default pool.
func GetBytes(size int) []byte {
	return defaultBytePool.Get(size)
}

// GetBytesSized returns a byte slice with exact length from the default pool.
func GetBytesSized(size int) []byte {
	return defaultBytePool.GetSized(size)
}

// PutBytes returns a byte slice to the default pool.
func PutBytes(b []byte) {
	defaultBytePool.Put(b)
}
