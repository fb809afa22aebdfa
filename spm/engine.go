package spm

// Engine is a loaded subword tokenizer. All segmentation logic lives in the
// backing implementation; callers only see piece ids.
//
// An Engine is not safe for concurrent use of a single instance. Distinct
// instances are independent.
type Engine interface {
	// EncodeAsIDs segments UTF-8 text into piece ids, in order.
	EncodeAsIDs(text string) ([]int, error)

	// SetVocabulary restricts encoding output to the given pieces. The list
	// replaces any previous restriction; it must be non-empty. Pieces the
	// model does not know are ignored. Unknown and control pieces always
	// remain producible.
	SetVocabulary(pieces []string) error

	// IDToPiece returns the surface text of a piece id.
	IDToPiece(id int) (string, error)

	// IsUnknown reports whether id is the engine's unknown sentinel.
	IsUnknown(id int) bool

	// Close releases the underlying resources. Further calls fail.
	Close()
}
