package ingest

// ScrubMetadata drops every non-scalar value from loader metadata. The index
// only accepts string, integer, float and bool payloads - nested maps or
// arrays (page coordinates and similar loader internals) are removed, not
// serialized.
func ScrubMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	scrubbed := make(map[string]any, len(metadata))
	for key, value := range metadata {
		switch value.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			scrubbed[key] = value
		default:
			logger.Debug("Dropping non-scalar metadata value", "key", key)
		}
	}
	return scrubbed
}
