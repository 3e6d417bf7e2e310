package leaders

// Scope tells whether a leader heads a state or a union territory.
type Scope string

const (
	ScopeState Scope = "state"
	ScopeUT    Scope = "ut"
)

type Leader struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Scope    Scope  `json:"scope"`
	Region   string `json:"region"`
	ImageURL string `json:"image_url"`
}
