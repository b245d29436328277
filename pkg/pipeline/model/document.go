package model

// Record is a (name, content) pair exchanged with document sources and sinks.
type Record struct {
	Name    string
	Content []byte
}

// Document is the unit of work carried through a step chain.
//
// Failed is monotonic: once true it never reverts, and Content is frozen from that point on.
type Document struct {
	Name    string
	Content []byte
	Failed  bool
}

// NewDocument creates a pending document from a record.
func NewDocument(rec Record) Document {
	return Document{Name: rec.Name, Content: rec.Content}
}

// Fail returns a copy of the document marked as failed. Content is left untouched.
func (d Document) Fail() Document {
	d.Failed = true

	return d
}

// WithContent returns a copy of the document holding content.
// A failed document is returned unchanged.
func (d Document) WithContent(content []byte) Document {
	if d.Failed {
		return d
	}
	d.Content = content

	return d
}

// Record strips the failed flag.
func (d Document) Record() Record {
	return Record{Name: d.Name, Content: d.Content}
}
