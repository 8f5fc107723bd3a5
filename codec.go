package calico

// Encoder renders Values as text or bytes in one format.
type Encoder interface {
	// ContentType returns the MIME type for this format (e.g., "text/csv").
	ContentType() string

	// Marshal encodes v.
	Marshal(v Value) ([]byte, error)
}

// Decoder parses one format into Values.
type Decoder interface {
	// Unmarshal decodes data into a fresh Value.
	Unmarshal(data []byte) (Value, error)
}

// Codec is an Encoder that can also decode what it writes.
type Codec interface {
	Encoder
	Decoder
}
