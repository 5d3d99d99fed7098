package schema

import (
	"graphdiff/domain/comparison"
	"graphdiff/pkg/canonical"
)

// Codec turns comparison results into stored bytes and back. Compressed
// codecs zstd-encode the enveloped JSON.
type Codec struct {
	evolution *SchemaEvolution
	compress  bool
}

// NewCodec creates a codec
func NewCodec(compress bool) *Codec {
	return &Codec{
		evolution: NewSchemaEvolution(),
		compress:  compress,
	}
}

// Encode serializes a result at the current schema version
func (c *Codec) Encode(result *comparison.Result) ([]byte, error) {
	data, err := MarshalWithSchema(result)
	if err != nil {
		return nil, err
	}
	if c.compress {
		return canonical.Compress(data), nil
	}
	return data, nil
}

// Decode deserializes a stored record of any known schema version
func (c *Codec) Decode(blob []byte) (*comparison.Result, error) {
	data := blob
	if c.compress {
		var err error
		if data, err = canonical.DecodeRecord(blob); err != nil {
			return nil, err
		}
	}
	result, _, err := c.evolution.UnmarshalWithSchema(data)
	return result, err
}
