package pipeline

import (
	"encoding/json"
	"fmt"

	"curator/internal/matching"
	"curator/internal/queue"
)

// Queue metadata keys. The queue stores loosely-typed JSON; these helpers
// are the only place that shape is known.
const (
	metaTitle          = "title"
	metaArtist         = "artist"
	metaTrackCount     = "track_count"
	metaGenre          = "genre"
	metaHasArtwork     = "has_artwork"
	metaIssues         = "issues"
	metaConfidence     = "confidence"
	metaClassification = "classification"
	metaMatch          = "match"
	metaScores         = "scores"
	metaCorrections    = "corrections"
	metaFixResult      = "fix_result"
)

func localFromItem(item *queue.Item) matching.Local {
	local := matching.Local{
		Title:  stringField(item.Metadata, metaTitle),
		Artist: stringField(item.Metadata, metaArtist),
		Genre:  stringField(item.Metadata, metaGenre),
	}
	// Persisted metadata comes back from JSON as float64; in-memory
	// dry-run items carry the native int.
	switch v := item.Metadata[metaTrackCount].(type) {
	case float64:
		local.TrackCount = int(v)
	case int:
		local.TrackCount = v
	}
	if v, ok := item.Metadata[metaHasArtwork].(bool); ok {
		local.HasArtwork = v
	}
	return local
}

func stringField(metadata map[string]any, key string) string {
	v, _ := metadata[key].(string)
	return v
}

// correctionsFromItem decodes the correction list persisted at validation
// time. The queue round-trips metadata through JSON, so the stored value is
// generic maps; re-marshaling recovers the typed slice.
func correctionsFromItem(item *queue.Item) ([]matching.Correction, error) {
	raw, ok := item.Metadata[metaCorrections]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode stored corrections: %w", err)
	}
	var corrections []matching.Correction
	if err := json.Unmarshal(data, &corrections); err != nil {
		return nil, fmt.Errorf("decode stored corrections: %w", err)
	}
	return corrections, nil
}

// asMetadataValue converts a typed value into the generic shape the queue
// persists, keeping reads and writes symmetrical.
func asMetadataValue(value any) any {
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil
	}
	return generic
}
