package domain

// RawDocument is a file's bytes before text extraction.
type RawDocument struct {
	// Filename is used to infer the MIME type when MIMEType is empty.
	Filename string

	// MIMEType is the declared content type, without parameters.
	MIMEType string

	Content []byte
}
