package tosz

// BodyCodec is the interface for anything that can pack and unpack an image
// body. Implementations must not keep state between calls, so one value may be
// shared by concurrent callers.
type BodyCodec interface {
	// Compress packs `source` into a self-describing container. It never fails;
	// data that can't be coded is stored verbatim.
	Compress(source []byte) []byte

	// Decompress unpacks a container produced by Compress. It returns the
	// expanded bytes and their length, or an [ArchiveError] if the container is
	// malformed. Partial output is never returned.
	Decompress(container []byte) ([]byte, int64, error)
}
