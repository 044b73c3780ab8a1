package qa

// QuestionType tags the graph-pattern shape that produced a QA item.
type QuestionType string

const (
	OneHop       QuestionType = "One-hop"
	TwoHop       QuestionType = "Two-hop"
	Intersection QuestionType = "Intersection"
	Attribute    QuestionType = "Attribute"
)

// KnownTypes lists the four pattern shapes in generation order.
var KnownTypes = []QuestionType{OneHop, TwoHop, Intersection, Attribute}

// Valid reports whether t is one of the known pattern shapes.
func (t QuestionType) Valid() bool {
	switch t {
	case OneHop, TwoHop, Intersection, Attribute:
		return true
	}
	return false
}

// Item is a generated question-answer pair together with the graph
// bindings and literature evidence that produced it.
type Item struct {
	ID           string       `json:"id"`
	QuestionType QuestionType `json:"question_type"`
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	Evidence     string       `json:"evidence,omitempty"`
	PubMedQuery  string       `json:"pubmed_query,omitempty"`

	Head      string `json:"head,omitempty"`
	HeadType  string `json:"head_type,omitempty"`
	Relation  string `json:"relation,omitempty"`
	Mid       string `json:"mid,omitempty"`
	MidType   string `json:"mid_type,omitempty"`
	Relation2 string `json:"relation2,omitempty"`
	Tail      string `json:"tail,omitempty"`
	TailType  string `json:"tail_type,omitempty"`

	Head2      string `json:"head2,omitempty"`
	Head2Type  string `json:"head2_type,omitempty"`
	Common     string `json:"common,omitempty"`
	CommonType string `json:"common_type,omitempty"`

	Entity      string `json:"entity,omitempty"`
	Description string `json:"description,omitempty"`
}

// Entities returns the entity names bound by the pattern instance.
func (i Item) Entities() []string {
	var names []string
	for _, name := range []string{i.Head, i.Mid, i.Tail, i.Head2, i.Common, i.Entity} {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Key returns the question|answer join key used to match items across
// score files that predate item identifiers.
func (i Item) Key() string {
	return i.Question + "|" + i.Answer
}
