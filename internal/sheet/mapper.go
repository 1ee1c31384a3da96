package sheet

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"elysium/internal/model"
)

// ErrMapping indicates the character data could not be turned into a field
// mapping (a derivation rule failed). The request must be rejected; no
// partial mapping is ever returned.
var ErrMapping = errors.New("sheet: mapping failed")

// Mapper translates characters into field mappings for one schema.
// It is stateless and safe for concurrent use.
type Mapper struct {
	schema Schema
}

// NewMapper creates a Mapper for the given schema table.
func NewMapper(schema Schema) *Mapper {
	return &Mapper{schema: schema}
}

// Schema returns the schema table the mapper was built with.
func (m *Mapper) Schema() Schema { return m.schema }

// Map builds the flat field mapping for a character. It is pure and
// deterministic: equal input yields equal output. Traits the schema does not
// know are ignored so that partial template variants keep working; ratings
// are clamped into the representable dot range.
func (m *Mapper) Map(c model.CharacterSheet) (FieldMapping, error) {
	s := m.schema
	out := make(FieldMapping)

	c = applyDefaults(c)

	experience, err := deriveExperience(c)
	if err != nil {
		return nil, err
	}
	willpower, err := deriveAvailableWillpower(c)
	if err != nil {
		return nil, err
	}

	clan := c.Clan
	texts := map[string]string{
		"name":       c.Name,
		"player":     c.Player,
		"chronicle":  c.Chronicle,
		"nature":     model.RefName(c.Nature),
		"demeanor":   model.RefName(c.Demeanor),
		"concept":    model.RefName(c.Concept),
		"Clan":       model.RefName(clan),
		"gen":        intText(c.Generation),
		"sire":       c.Sire,
		"ppt":        intText(c.BloodPointsPerTurn),
		"experience": experience,
		// The template's original misc title area renders badly, so the
		// heading is written through the misc lines instead.
		"misctitle": " ",
	}
	if c.Name == "" {
		texts["name"] = "Unknown Kindred"
	}
	if clan != nil {
		texts["weakness"] = clan.Weakness
	} else {
		texts["weakness"] = ""
	}
	for _, f := range s.TextFields {
		out[f] = Text(texts[f])
	}

	for _, b := range s.Attributes {
		m.expandBlock(out, b, rating(c.Attributes, b))
	}
	for _, b := range s.Abilities {
		m.expandBlock(out, b, rating(c.Abilities, b))
	}
	for _, b := range s.Virtues {
		m.expandBlock(out, b, rating(c.Virtues, b))
	}

	discOverflow := m.expandSlots(out, s.Disciplines, c.Disciplines)
	backOverflow := m.expandSlots(out, s.Backgrounds, c.Backgrounds)
	m.expandMisc(out, discOverflow, backOverflow)

	m.expandTracker(out, s.Humanity, c.Humanity)
	m.expandTracker(out, s.Willpower, willpower)

	return out, nil
}

// applyDefaults fills the payload defaults for values the request omitted:
// a fledgling thirteenth-generation vampire with one blood point per turn,
// humanity 7 and willpower 6. Zero means absent for these fields; the
// generator never sends legitimate zeroes for them.
func applyDefaults(c model.CharacterSheet) model.CharacterSheet {
	if c.Generation == 0 {
		c.Generation = 13
	}
	if c.BloodPointsPerTurn == 0 {
		c.BloodPointsPerTurn = 1
	}
	if c.Humanity == 0 {
		c.Humanity = 7
	}
	if c.Willpower == 0 {
		c.Willpower = 6
	}
	return c
}

// deriveExperience renders the "spent/total" experience display.
func deriveExperience(c model.CharacterSheet) (string, error) {
	if c.SpentExperience < 0 || c.TotalExperience < 0 {
		return "", fmt.Errorf("%w: experience: negative operand (spent=%d total=%d)",
			ErrMapping, c.SpentExperience, c.TotalExperience)
	}
	if c.SpentExperience > c.TotalExperience {
		return "", fmt.Errorf("%w: experience: spent %d exceeds total %d",
			ErrMapping, c.SpentExperience, c.TotalExperience)
	}
	return fmt.Sprintf("%d/%d", c.SpentExperience, c.TotalExperience), nil
}

// deriveAvailableWillpower computes the willpower left on the tracker:
// permanent rating minus points spent.
func deriveAvailableWillpower(c model.CharacterSheet) (int, error) {
	if c.WillpowerSpent < 0 {
		return 0, fmt.Errorf("%w: willpower: negative spent value %d", ErrMapping, c.WillpowerSpent)
	}
	if c.WillpowerSpent > c.Willpower {
		return 0, fmt.Errorf("%w: willpower: spent %d exceeds rating %d",
			ErrMapping, c.WillpowerSpent, c.Willpower)
	}
	return c.Willpower - c.WillpowerSpent, nil
}

// rating reads a trait's rating from the request map, falling back to the
// block's default when the trait was not sent.
func rating(traits map[string]int, b DotBlock) int {
	if v, ok := traits[b.Trait]; ok {
		return v
	}
	return b.Default
}

// expandBlock emits the dot run for one rated trait: the first r dots on,
// the rest off, plus the suffix widget when the rating spills past the
// visual block.
func (m *Mapper) expandBlock(out FieldMapping, b DotBlock, r int) {
	r = clamp(r, m.schema.MaxRating)
	lit := r
	if lit > b.Size {
		lit = b.Size
	}
	for i := 0; i < b.Size; i++ {
		state := m.schema.Off
		if i < lit {
			state = m.schema.On
		}
		out[dotField(b.Start+i)] = Choice(state)
	}
	if b.Suffixed {
		state := m.schema.Off
		if r > b.Size {
			state = m.schema.On
		}
		out[dotSuffixField(b.Start+b.Size-1)] = Choice(state)
	}
}

// expandSlots fills a labelled slot section from a trait map, highest rating
// first. Traits beyond the section's slot count are returned for the misc
// overflow area.
func (m *Mapper) expandSlots(out FieldMapping, sec SlotSection, traits map[string]int) []ratedTrait {
	sorted := sortTraits(traits)
	for i, t := range sorted {
		if i >= sec.Slots {
			return sorted[sec.Slots:]
		}
		out[fmt.Sprintf("%s%d", sec.LabelPrefix, i+1)] = Text(displayName(t.name))
		m.expandBlock(out, sec.block(i), t.rating)
	}
	return nil
}

// expandTracker fills a linear tracker (humanity, willpower).
func (m *Mapper) expandTracker(out FieldMapping, tr Tracker, v int) {
	v = clamp(v, tr.Max)
	for i := 1; i <= tr.Max; i++ {
		out[fmt.Sprintf("%s%d", tr.Prefix, i)] = Checkbox(i <= v)
	}
}

// expandMisc writes the overflow disciplines/backgrounds as plain text lines
// into the misc area. Only the first MiscLines lines fit on the sheet.
func (m *Mapper) expandMisc(out FieldMapping, discs, backs []ratedTrait) {
	lines := []string{"OTHER TRAITS", ""}
	if len(discs) > 0 {
		lines = append(lines, "--- Additional Disciplines ---")
		for _, t := range discs {
			lines = append(lines, fmt.Sprintf("%s: %d", displayName(t.name), t.rating))
		}
		lines = append(lines, "")
	}
	if len(backs) > 0 {
		lines = append(lines, "--- Additional Backgrounds ---")
		for _, t := range backs {
			lines = append(lines, fmt.Sprintf("%s: %d", displayName(t.name), t.rating))
		}
		lines = append(lines, "")
	}
	for i, line := range lines {
		if i >= m.schema.MiscLines {
			break
		}
		out[fmt.Sprintf("misc%d", i+1)] = Text(line)
	}
}

type ratedTrait struct {
	name   string
	rating int
}

// sortTraits orders a trait map by rating descending, name ascending on
// ties. The secondary key keeps Map deterministic.
func sortTraits(traits map[string]int) []ratedTrait {
	sorted := make([]ratedTrait, 0, len(traits))
	for name, r := range traits {
		sorted = append(sorted, ratedTrait{name: name, rating: r})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].rating != sorted[j].rating {
			return sorted[i].rating > sorted[j].rating
		}
		return sorted[i].name < sorted[j].name
	})
	return sorted
}

// displayName renders a canonical trait key ("animal_ken") as sheet text
// ("Animal Ken").
func displayName(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// intText formats a positive integer, rendering zero as empty so unset
// fields stay blank on the sheet.
func intText(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
