package models

// Category is the topical bucket a message is classified into.
type Category string

const (
	CategoryReputation       Category = "reputation"
	CategorySocialContent    Category = "social_content"
	CategorySearchVisibility Category = "search_visibility"
	CategoryNone             Category = "none"
)

// AnswerSource attributes a reply to the tier that produced it.
type AnswerSource string

const (
	SourceStructuredLookup AnswerSource = "structured_lookup"
	SourceGenerative       AnswerSource = "generative"
	SourceNoneAvailable    AnswerSource = "none_available"
	SourceControl          AnswerSource = "control"
	SourceIntake           AnswerSource = "intake"
	SourceGreeting         AnswerSource = "greeting"
)

// RouteDecision is not persisted.
type RouteDecision struct {
	Category Category     `json:"category"`
	Source   AnswerSource `json:"source"`
}

type LookupKind string

const (
	LookupOK             LookupKind = "ok"
	LookupEmpty          LookupKind = "empty"
	LookupTransportError LookupKind = "transport_error"
)

// LookupErrorKind qualifies a LookupTransportError.
type LookupErrorKind string

const (
	LookupErrTimeout     LookupErrorKind = "timeout"
	LookupErrUnavailable LookupErrorKind = "unavailable"
	LookupErrQuery       LookupErrorKind = "query"
	LookupErrDecode      LookupErrorKind = "decode"
)

// LookupResult is the outcome of one structured data lookup.
type LookupResult struct {
	Kind      LookupKind               `json:"kind"`
	Text      string                   `json:"text,omitempty"`
	Rows      []map[string]interface{} `json:"rows,omitempty"`
	ErrorKind LookupErrorKind          `json:"errorKind,omitempty"`
	Err       error                    `json:"-"`
}

// Reply is the router's answer to one message.
type Reply struct {
	Text     string        `json:"reply"`
	Decision RouteDecision `json:"decision"`
	Prompt   *Prompt       `json:"prompt,omitempty"`
}
