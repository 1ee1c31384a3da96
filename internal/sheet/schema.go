package sheet

// Package sheet turns a character into a flat mapping from PDF form field
// names to field values. All template-specific knowledge (field numbering,
// block sizes, state tokens) lives in the Schema table; the mapping
// algorithm itself is template-agnostic.

import "fmt"

// ValueKind discriminates the three kinds of values a form field can take.
type ValueKind int

const (
	// KindText is a plain string for a text widget.
	KindText ValueKind = iota
	// KindCheckbox is an on/off toggle; the filler resolves the widget's
	// actual "on" export value from the template.
	KindCheckbox
	// KindChoice is an explicit appearance state name (e.g. "Yes", "Off").
	KindChoice
)

// FieldValue is the value assigned to a single form field.
type FieldValue struct {
	Kind  ValueKind
	Text  string // KindText
	On    bool   // KindCheckbox
	State string // KindChoice, state name without the leading slash
}

// Text builds a text field value.
func Text(s string) FieldValue { return FieldValue{Kind: KindText, Text: s} }

// Checkbox builds an on/off field value.
func Checkbox(on bool) FieldValue { return FieldValue{Kind: KindCheckbox, On: on} }

// Choice builds an explicit appearance-state field value.
func Choice(state string) FieldValue { return FieldValue{Kind: KindChoice, State: state} }

// FieldMapping is a flat mapping from PDF field name to value. It carries no
// identity beyond a single request and its iteration order is irrelevant.
type FieldMapping map[string]FieldValue

// DotBlock describes one rated trait rendered as a run of dot checkboxes.
// Dot fields are named dot<N> with global numbering across the sheet.
type DotBlock struct {
	Trait    string // canonical key in the request's trait map
	Start    int    // id of the first dot field
	Size     int    // dots in the visual block
	Suffixed bool   // block has the extra dot<End>a widget for ratings above Size
	Default  int    // rating assumed when the trait is absent from the request
}

// SlotSection describes a labelled trait section (disciplines, backgrounds):
// a fixed number of slots, each with a text label field and a dot block.
type SlotSection struct {
	LabelPrefix string // label fields are <LabelPrefix>1..<Slots>
	Slots       int
	Start       int // first dot id of slot 1
	Stride      int // dot ids consumed per slot
	Size        int
	Suffixed    bool
}

// Tracker describes a linear tracker with its own field prefix,
// fields <Prefix>1..<Max>.
type Tracker struct {
	Prefix string
	Max    int
}

// Schema is the static field-name table for one sheet template family.
type Schema struct {
	TextFields  []string
	Attributes  []DotBlock
	Abilities   []DotBlock
	Disciplines SlotSection
	Backgrounds SlotSection
	Virtues     []DotBlock
	Humanity    Tracker
	Willpower   Tracker
	MiscLines   int // overflow lines misc1..<MiscLines>

	// Appearance state tokens for dot fields.
	On, Off string

	// MaxRating is the clamp ceiling for block trait ratings.
	MaxRating int
}

// V20Schema returns the field table for the V20 character sheet template.
// The numbering was obtained by mapping the template's widgets: attribute and
// ability blocks are 8 dots wide with an oddball "<end>a" ninth widget,
// virtues are 5 wide, trackers are 10 long.
func V20Schema() Schema {
	attrs := []string{
		"strength", "dexterity", "stamina",
		"charisma", "manipulation", "appearance",
		"perception", "intelligence", "wits",
	}
	abilities := []string{
		// Talents
		"alertness", "athletics", "awareness", "brawl", "empathy",
		"expression", "intimidation", "leadership", "streetwise", "subterfuge",
		// Skills
		"animal_ken", "crafts", "drive", "etiquette", "firearms",
		"larceny", "melee", "performance", "stealth", "survival",
		// Knowledges
		"academics", "computer", "finance", "investigation", "law",
		"medicine", "occult", "politics", "science", "technology",
	}

	s := Schema{
		TextFields: []string{
			"name", "player", "chronicle",
			"nature", "demeanor", "concept", "Clan",
			"gen", "sire", "ppt", "weakness", "experience",
			"misctitle",
		},
		Disciplines: SlotSection{LabelPrefix: "disciplines", Slots: 6, Start: 313, Stride: 8, Size: 8, Suffixed: true},
		Backgrounds: SlotSection{LabelPrefix: "back", Slots: 6, Start: 361, Stride: 8, Size: 8, Suffixed: true},
		Virtues: []DotBlock{
			{Trait: "conscience", Start: 409, Size: 5, Default: 1},
			{Trait: "self_control", Start: 414, Size: 5, Default: 1},
			{Trait: "courage", Start: 419, Size: 5, Default: 1},
		},
		Humanity:  Tracker{Prefix: "hdot", Max: 10},
		Willpower: Tracker{Prefix: "willdot", Max: 10},
		MiscLines: 13,
		On:        "Yes",
		Off:       "Off",
		MaxRating: 10,
	}

	for i, name := range attrs {
		s.Attributes = append(s.Attributes, DotBlock{
			Trait: name, Start: 1 + i*8, Size: 8, Suffixed: true, Default: 1,
		})
	}
	for i, name := range abilities {
		s.Abilities = append(s.Abilities, DotBlock{
			Trait: name, Start: 73 + i*8, Size: 8, Suffixed: true,
		})
	}
	return s
}

// FieldNames returns the full set of field names this schema can emit.
// Every key of a mapping produced by Map is a member of this set.
func (s Schema) FieldNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, f := range s.TextFields {
		names[f] = struct{}{}
	}
	addBlock := func(b DotBlock) {
		for i := 0; i < b.Size; i++ {
			names[dotField(b.Start+i)] = struct{}{}
		}
		if b.Suffixed {
			names[dotSuffixField(b.Start+b.Size-1)] = struct{}{}
		}
	}
	for _, b := range s.Attributes {
		addBlock(b)
	}
	for _, b := range s.Abilities {
		addBlock(b)
	}
	for _, b := range s.Virtues {
		addBlock(b)
	}
	for _, sec := range []SlotSection{s.Disciplines, s.Backgrounds} {
		for slot := 0; slot < sec.Slots; slot++ {
			names[fmt.Sprintf("%s%d", sec.LabelPrefix, slot+1)] = struct{}{}
			addBlock(sec.block(slot))
		}
	}
	for _, tr := range []Tracker{s.Humanity, s.Willpower} {
		for i := 1; i <= tr.Max; i++ {
			names[fmt.Sprintf("%s%d", tr.Prefix, i)] = struct{}{}
		}
	}
	for i := 1; i <= s.MiscLines; i++ {
		names[fmt.Sprintf("misc%d", i)] = struct{}{}
	}
	return names
}

// block returns the dot block occupied by the given zero-based slot.
func (sec SlotSection) block(slot int) DotBlock {
	return DotBlock{
		Start:    sec.Start + slot*sec.Stride,
		Size:     sec.Size,
		Suffixed: sec.Suffixed,
	}
}

func dotField(id int) string { return fmt.Sprintf("dot%d", id) }

// dotSuffixField names the extra widget hanging off the last dot of a
// suffixed block (e.g. dot8a). The template really is laid out this way.
func dotSuffixField(id int) string { return fmt.Sprintf("dot%da", id) }
