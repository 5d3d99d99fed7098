package aggregates

import (
	"bytes"
	"encoding/json"
	"fmt"

	"graphdiff/domain/core/entities"
	"graphdiff/domain/core/valueobjects"
	"graphdiff/pkg/canonical"
)

// Snapshot is a point-in-time payload of nodes and links.
// Snapshots are supplied per request and never mutated by the comparison core.
type Snapshot struct {
	Nodes     []entities.Node
	Links     []entities.Link
	Metadata  valueobjects.Value
	Timestamp string

	// extra keeps unknown top-level keys so the document round-trips
	extra map[string]valueobjects.Value
}

// NewSnapshot creates a snapshot from nodes and links
func NewSnapshot(nodes []entities.Node, links []entities.Link) Snapshot {
	return Snapshot{Nodes: nodes, Links: links}
}

// NodeCount returns the number of nodes as supplied, duplicates included
func (s Snapshot) NodeCount() int { return len(s.Nodes) }

// LinkCount returns the number of links as supplied, duplicates included
func (s Snapshot) LinkCount() int { return len(s.Links) }

// IsEmpty reports whether the snapshot has neither nodes nor links
func (s Snapshot) IsEmpty() bool {
	return len(s.Nodes) == 0 && len(s.Links) == 0
}

// Checksum returns a content hash of the snapshot that is independent of
// key order inside nodes and links.
func (s Snapshot) Checksum() (string, error) {
	sum, err := canonical.Checksum(s)
	if err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return sum, nil
}

// MarshalJSON implements json.Marshaler
func (s Snapshot) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(s.extra)+4)
	for k, v := range s.extra {
		doc[k] = v
	}

	nodes := s.Nodes
	if nodes == nil {
		nodes = []entities.Node{}
	}
	links := s.Links
	if links == nil {
		links = []entities.Link{}
	}
	doc["nodes"] = nodes
	doc["links"] = links

	if !s.Metadata.IsNull() {
		doc["metadata"] = s.Metadata
	}
	if s.Timestamp != "" {
		doc["timestamp"] = s.Timestamp
	}

	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler.
// Decoding is lenient: missing, null or non-array nodes/links collections
// decode as empty.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc valueobjects.Value
	if err := doc.UnmarshalJSON(data); err != nil {
		return err
	}

	*s = SnapshotFromValue(doc)
	return nil
}

// SnapshotFromValue builds a snapshot from an already decoded document
func SnapshotFromValue(doc valueobjects.Value) Snapshot {
	var s Snapshot

	fields, ok := doc.AsMap()
	if !ok {
		return s
	}

	if items, ok := fields["nodes"].AsSequence(); ok {
		s.Nodes = make([]entities.Node, len(items))
		for i, item := range items {
			s.Nodes[i] = entities.NewNode(item)
		}
	}
	if items, ok := fields["links"].AsSequence(); ok {
		s.Links = make([]entities.Link, len(items))
		for i, item := range items {
			s.Links[i] = entities.NewLink(item)
		}
	}
	s.Metadata = fields["metadata"]

	if ts, ok := fields["timestamp"]; ok {
		s.Timestamp = ts.Text()
	}

	for k, v := range fields {
		switch k {
		case "nodes", "links", "metadata", "timestamp":
			continue
		}
		if s.extra == nil {
			s.extra = make(map[string]valueobjects.Value)
		}
		s.extra[k] = v
	}

	return s
}

// DecodeSnapshot reads a snapshot document from raw JSON
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
