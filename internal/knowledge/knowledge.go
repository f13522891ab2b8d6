// Package knowledge defines the records stored in the vector knowledge base.
package knowledge

// Provenance tags where a knowledge-base entry came from. It is a closed
// set: anything else is rejected at the store boundary.
type Provenance string

const (
	ProvenanceSeed          Provenance = "seed"
	ProvenanceHumanFeedback Provenance = "human_feedback"
)

func (p Provenance) Valid() bool {
	return p == ProvenanceSeed || p == ProvenanceHumanFeedback
}

// Entry is one knowledge-base record. Deprecated entries stay in the store
// for audit but are excluded from ranking; the flag is never reset to false.
// A human_feedback entry always carries the FeedbackID of the audit record
// that produced it.
type Entry struct {
	ID         string
	Vector     []float32
	Question   string
	Answer     string
	Provenance Provenance
	Deprecated bool
	FeedbackID int64
	Comment    string
}

// Hit pairs an entry with its raw cosine similarity from a vector search.
type Hit struct {
	Entry
	Score float32
}
