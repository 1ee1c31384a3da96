package model

// Ref is a reference entry coming from the character generator backend
// (clan, nature, demeanor, concept). Only the display name matters for the
// sheet; the rest is carried so request decoding stays lossless.
type Ref struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Weakness    string `json:"weakness,omitempty"`
}

// CharacterSheet is the request payload for sheet generation. It mirrors the
// JSON produced by the character generator backend: scalar identity fields,
// rated trait maps, and the humanity/willpower trackers.
//
// The model is assumed well-typed at decode time; the mapper still clamps
// ratings and tolerates missing optional data.
type CharacterSheet struct {
	Name      string `json:"name"`
	Player    string `json:"player,omitempty"`
	Chronicle string `json:"chronicle,omitempty"`
	Sire      string `json:"sire,omitempty"`

	Concept  *Ref `json:"concept,omitempty"`
	Clan     *Ref `json:"clan,omitempty"`
	Nature   *Ref `json:"nature,omitempty"`
	Demeanor *Ref `json:"demeanor,omitempty"`

	Generation         int    `json:"generation,omitempty"`
	Age                int    `json:"age,omitempty"`
	AgeCategory        string `json:"ageCategory,omitempty"`
	BloodPointsPerTurn int    `json:"bloodPointsPerTurn,omitempty"`
	MaximumBloodPool   int    `json:"maximumBloodPool,omitempty"`
	TotalExperience    int    `json:"totalExperience"`
	SpentExperience    int    `json:"spentExperience"`

	Attributes  map[string]int `json:"attributes,omitempty"`
	Abilities   map[string]int `json:"abilities,omitempty"`
	Disciplines map[string]int `json:"disciplines,omitempty"`
	Backgrounds map[string]int `json:"backgrounds,omitempty"`
	Virtues     map[string]int `json:"virtues,omitempty"`

	Humanity       int `json:"humanity,omitempty"`
	Willpower      int `json:"willpower,omitempty"`
	WillpowerSpent int `json:"willpowerSpent,omitempty"`
}

// RefName returns the display name of an optional reference, or "" when the
// reference is absent.
func RefName(r *Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}
