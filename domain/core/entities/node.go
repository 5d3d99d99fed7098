package entities

import (
	"encoding/json"

	"graphdiff/domain/core/valueobjects"
)

// Node is a graph vertex as supplied in a snapshot.
// The full decoded content is retained so that equality and change
// detection cover every key, not only the well-known ones.
type Node struct {
	content valueobjects.Value
}

// NewNode wraps decoded node content
func NewNode(content valueobjects.Value) Node {
	return Node{content: content}
}

// NodeFromMap builds a node from plain Go fields
func NodeFromMap(fields map[string]interface{}) Node {
	return Node{content: valueobjects.FromAny(fields)}
}

// Content returns the complete node document
func (n Node) Content() valueobjects.Value {
	return n.content
}

// Field returns a top-level key of the node
func (n Node) Field(key string) (valueobjects.Value, bool) {
	return n.content.Get(key)
}

// Keys returns the sorted top-level keys of the node
func (n Node) Keys() []string {
	return n.content.Keys()
}

// RawID returns the declared id field, if any
func (n Node) RawID() (valueobjects.Value, bool) {
	id, ok := n.content.Get("id")
	if !ok || id.IsNull() {
		return valueobjects.Value{}, false
	}
	return id, true
}

// Label returns the node label, falling back to its type
func (n Node) Label() string {
	if label, ok := n.content.Get("label"); ok && !label.IsNull() {
		return label.Text()
	}
	if typ, ok := n.content.Get("type"); ok {
		return typ.Text()
	}
	return ""
}

// Name returns the optional display name
func (n Node) Name() string {
	if name, ok := n.content.Get("name"); ok {
		return name.Text()
	}
	return ""
}

// Properties returns the property map. Both "props" and "properties" are
// accepted; a missing map yields an empty one.
func (n Node) Properties() valueobjects.Value {
	return propertiesOf(n.content)
}

// Equal reports deep equality over the whole node document
func (n Node) Equal(other Node) bool {
	return n.content.Equal(other.content)
}

// MarshalJSON implements json.Marshaler
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.content)
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Node) UnmarshalJSON(data []byte) error {
	return n.content.UnmarshalJSON(data)
}

func propertiesOf(content valueobjects.Value) valueobjects.Value {
	for _, key := range []string{"props", "properties"} {
		if props, ok := content.Get(key); ok && props.Kind() == valueobjects.KindMap {
			return props
		}
	}
	return valueobjects.Map(nil)
}
