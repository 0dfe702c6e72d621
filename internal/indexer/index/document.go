package index

// Document is one indexable unit of the corpus. ID is assigned by the
// builder in insertion order; Location is the unique external key.
type Document struct {
	ID       uint32 `json:"id"`
	Location string `json:"location"`
	Page     string `json:"page"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Text     string `json:"text,omitempty"`
}
