package entities

import (
	"encoding/json"

	"graphdiff/domain/core/valueobjects"
)

// Link is a directed, typed relationship between two nodes.
// Endpoints are kept in their raw form; resolution into identifiers is the
// job of the identity package.
type Link struct {
	content valueobjects.Value
}

// NewLink wraps decoded link content
func NewLink(content valueobjects.Value) Link {
	return Link{content: content}
}

// LinkFromMap builds a link from plain Go fields
func LinkFromMap(fields map[string]interface{}) Link {
	return Link{content: valueobjects.FromAny(fields)}
}

// Content returns the complete link document
func (l Link) Content() valueobjects.Value {
	return l.content
}

// Source returns the raw source endpoint
func (l Link) Source() valueobjects.Value {
	v, _ := l.content.Get("source")
	return v
}

// Target returns the raw target endpoint
func (l Link) Target() valueobjects.Value {
	v, _ := l.content.Get("target")
	return v
}

// Type returns the declared relationship type, without defaulting
func (l Link) Type() string {
	if typ, ok := l.content.Get("type"); ok {
		return typ.Text()
	}
	return ""
}

// Properties returns the link property map
func (l Link) Properties() valueobjects.Value {
	return propertiesOf(l.content)
}

// Equal reports deep equality over the whole link document
func (l Link) Equal(other Link) bool {
	return l.content.Equal(other.content)
}

// MarshalJSON implements json.Marshaler
func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.content)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Link) UnmarshalJSON(data []byte) error {
	return l.content.UnmarshalJSON(data)
}
