// Package identity canonicalizes node and link identities so that elements
// can be matched across snapshots regardless of how they were written.
package identity

import (
	"encoding/json"
	"fmt"

	"graphdiff/domain/core/entities"
	"graphdiff/domain/core/valueobjects"
	"graphdiff/pkg/canonical"
)

// DefaultLinkType is assumed when a link declares no type
const DefaultLinkType = "RELATED_TO"

// contentPrefix marks identities derived from node content rather than a declared id
const contentPrefix = "content:"

// NormalizeNodeIdentity returns the declared id when present and non-empty.
// Otherwise it derives a deterministic identity from the whole node content;
// two distinct nodes with identical content share that identity.
func NormalizeNodeIdentity(node entities.Node) string {
	if id, ok := node.RawID(); ok {
		if text := DeclaredID(id); text != "" {
			return text
		}
	}
	return ContentIdentity(node.Content())
}

// DeclaredID renders a declared id. String ids are used as is; other kinds
// are prefixed with their kind so that 1 and "1" stay distinct.
func DeclaredID(id valueobjects.Value) string {
	switch id.Kind() {
	case valueobjects.KindNull:
		return ""
	case valueobjects.KindString:
		return id.Text()
	default:
		return id.Kind().String() + ":" + id.Text()
	}
}

// ContentIdentity fingerprints an arbitrary document
func ContentIdentity(content valueobjects.Value) string {
	data, err := canonical.JSON(content)
	if err != nil {
		// NaN and Inf do not encode
		data = []byte(fmt.Sprintf("%v", content.Interface()))
	}
	return contentPrefix + canonical.Blake3Hex(data)
}

// IsContentIdentity reports whether an identity was derived from content
func IsContentIdentity(id string) bool {
	return len(id) > len(contentPrefix) && id[:len(contentPrefix)] == contentPrefix
}

// EndpointKind distinguishes the accepted shapes of a link endpoint
type EndpointKind uint8

const (
	EndpointMissing EndpointKind = iota
	EndpointBare
	EndpointReference
)

// Endpoint is a link endpoint resolved once at the normalization boundary
type Endpoint struct {
	Kind EndpointKind
	ID   string
}

// ParseEndpoint resolves a raw endpoint. A bare identifier and an embedded
// node reference both resolve through DeclaredID. A missing endpoint yields
// an empty id.
func ParseEndpoint(raw valueobjects.Value) Endpoint {
	switch raw.Kind() {
	case valueobjects.KindNull:
		return Endpoint{Kind: EndpointMissing}
	case valueobjects.KindMap:
		id, _ := raw.Get("id")
		return Endpoint{Kind: EndpointReference, ID: DeclaredID(id)}
	default:
		return Endpoint{Kind: EndpointBare, ID: DeclaredID(raw)}
	}
}

// LinkIdentity is the (source, target, type) triple that identifies a link.
// Link properties are not part of the identity.
type LinkIdentity struct {
	Source string
	Target string
	Type   string
}

// NormalizeLinkIdentity resolves a link into its identity triple
func NormalizeLinkIdentity(link entities.Link) LinkIdentity {
	typ := link.Type()
	if typ == "" {
		typ = DefaultLinkType
	}

	return LinkIdentity{
		Source: ParseEndpoint(link.Source()).ID,
		Target: ParseEndpoint(link.Target()).ID,
		Type:   typ,
	}
}

// String renders the identity for logs and error messages
func (id LinkIdentity) String() string {
	return fmt.Sprintf("%s-[%s]->%s", id.Source, id.Type, id.Target)
}

// MarshalJSON encodes the identity as a [source, target, type] array
func (id LinkIdentity) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{id.Source, id.Target, id.Type})
}

// UnmarshalJSON implements json.Unmarshaler
func (id *LinkIdentity) UnmarshalJSON(data []byte) error {
	var parts [3]string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("link identity must be a [source, target, type] array: %w", err)
	}
	id.Source, id.Target, id.Type = parts[0], parts[1], parts[2]
	return nil
}
