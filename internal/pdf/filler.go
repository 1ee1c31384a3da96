package pdf

// Package pdf applies a sheet.FieldMapping onto the AcroForm fields of a PDF
// template. The template bytes are never mutated; every call works on its
// own copy, so concurrent fills need no locking.

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/lvillar/gofpdf/reader"

	"elysium/internal/sheet"
)

var (
	// ErrTemplateLoad indicates the template asset is missing, truncated or
	// not a parseable form document. Deployment problem, not client data.
	ErrTemplateLoad = errors.New("pdf: template load failed")
	// ErrRender indicates the filled document could not be serialized into a
	// valid PDF.
	ErrRender = errors.New("pdf: render failed")
)

// Fill populates the template's form fields from the mapping and returns the
// filled document bytes. Mapped names with no matching widget are returned
// in missing and skipped; they never fail the fill. Fields are applied in
// sorted name order so identical input yields byte-identical output.
func Fill(template []byte, mapping sheet.FieldMapping) (out []byte, missing []string, err error) {
	doc, err := reader.ReadFrom(bytes.NewReader(template))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}

	fields, err := doc.FormFields()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading form fields: %v", ErrTemplateLoad, err)
	}
	byName := make(map[string]*reader.FormField)
	for _, f := range flattenFields(fields) {
		byName[f.FullName] = f
	}
	if len(byName) == 0 {
		return nil, nil, fmt.Errorf("%w: no form fields in template", ErrTemplateLoad)
	}

	names := make([]string, 0, len(mapping))
	for name := range mapping {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	sort.Strings(missing)

	// Work on a copy; the caller may share the template bytes.
	modified := make([]byte, len(template))
	copy(modified, template)

	for _, name := range names {
		modified = setFieldValue(modified, byName[name], mapping[name])
	}

	modified = ensureNeedAppearances(modified)
	modified = rebuildXref(modified)

	// The filled document must parse back cleanly; anything else means the
	// byte surgery broke the file and no output may be returned.
	if _, err := reader.ReadFrom(bytes.NewReader(modified)); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return modified, missing, nil
}

// Inspect parses template bytes and returns the number of form fields,
// counting nested kids. Used to validate uploaded templates.
func Inspect(template []byte) (int, error) {
	doc, err := reader.ReadFrom(bytes.NewReader(template))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	fields, err := doc.FormFields()
	if err != nil {
		return 0, fmt.Errorf("%w: reading form fields: %v", ErrTemplateLoad, err)
	}
	n := len(flattenFields(fields))
	if n == 0 {
		return 0, fmt.Errorf("%w: no form fields in template", ErrTemplateLoad)
	}
	return n, nil
}

// flattenFields returns all fields in the tree, recursing into kids.
func flattenFields(fields []*reader.FormField) []*reader.FormField {
	var result []*reader.FormField
	for _, f := range fields {
		result = append(result, f)
		if len(f.Kids) > 0 {
			result = append(result, flattenFields(f.Kids)...)
		}
	}
	return result
}

var (
	valueStringRe = regexp.MustCompile(`/V\s*\([^)]*\)`)
	valueNameRe   = regexp.MustCompile(`/V\s+/[A-Za-z0-9.#_-]+(\s+/AS\s+/[A-Za-z0-9.#_-]+)?`)
	apStatesRe    = regexp.MustCompile(`/AP\s*<<\s*/N\s*<<([^>]*)>>`)
	stateNameRe   = regexp.MustCompile(`/([A-Za-z0-9.#_-]+)`)
)

// setFieldValue rewrites the raw bytes of every dictionary carrying the
// field's /T entry, setting /V (and /AS for button fields) according to the
// value kind. May change the data length; the xref is rebuilt afterwards.
func setFieldValue(data []byte, field *reader.FormField, value sheet.FieldValue) []byte {
	escapedName := escapePDFString(field.Name)
	patterns := [][]byte{
		[]byte(fmt.Sprintf("/T (%s)", escapedName)),
		[]byte(fmt.Sprintf("/T(%s)", escapedName)),
	}

	// A field dictionary can be duplicated between /Annots and the AcroForm
	// /Fields array; rewrite every occurrence, advancing past each dict so an
	// already-correct /V cannot stall the scan.
	searchFrom := 0
	for pass := 0; pass < 10; pass++ {
		idx := -1
		for _, p := range patterns {
			if i := bytes.Index(data[searchFrom:], p); i >= 0 {
				idx = searchFrom + i
				break
			}
		}
		if idx < 0 {
			break
		}

		dictStart := findDictStart(data, idx)
		dictEnd := findDictEnd(data, idx)
		if dictStart < 0 || dictEnd < 0 {
			break
		}

		fieldDict := make([]byte, dictEnd+2-dictStart)
		copy(fieldDict, data[dictStart:dictEnd+2])

		entry := valueEntry(fieldDict, field, value)
		newDict := replaceValueEntry(fieldDict, entry)
		if bytes.Equal(fieldDict, newDict) {
			searchFrom = dictEnd + 2
			continue
		}

		result := make([]byte, 0, len(data)-len(fieldDict)+len(newDict))
		result = append(result, data[:dictStart]...)
		result = append(result, newDict...)
		result = append(result, data[dictEnd+2:]...)
		data = result
		searchFrom = dictStart + len(newDict)
	}

	return data
}

// valueEntry renders the /V (and /AS) entry for a field value. Button fields
// get name objects with the appearance state kept in sync; the "on" export
// value is looked up from the widget's own appearance states because it can
// differ per field.
func valueEntry(fieldDict []byte, field *reader.FormField, value sheet.FieldValue) string {
	switch value.Kind {
	case sheet.KindCheckbox:
		state := "Off"
		if value.On {
			state = onState(fieldDict)
		}
		return fmt.Sprintf("/V /%s /AS /%s", state, state)
	case sheet.KindChoice:
		if field.Type == "Btn" {
			return fmt.Sprintf("/V /%s /AS /%s", value.State, value.State)
		}
		return fmt.Sprintf("/V (%s)", escapePDFString(value.State))
	default:
		if field.Type == "Btn" {
			// Text on a button widget makes no sense; map truthy strings to
			// the widget's on state so a lenient mapping still renders.
			state := "Off"
			if value.Text == "true" || value.Text == "Yes" || value.Text == "on" {
				state = onState(fieldDict)
			}
			return fmt.Sprintf("/V /%s /AS /%s", state, state)
		}
		return fmt.Sprintf("/V (%s)", escapePDFString(value.Text))
	}
}

// onState extracts the field's "on" export value from its /AP /N appearance
// dictionary: the first state name that is not Off. Falls back to Yes when
// the widget declares no appearance states inline.
func onState(fieldDict []byte) string {
	m := apStatesRe.FindSubmatch(fieldDict)
	if m == nil {
		return "Yes"
	}
	for _, s := range stateNameRe.FindAllSubmatch(m[1], -1) {
		name := string(s[1])
		if name != "Off" && name != "D" && name != "N" {
			return name
		}
	}
	return "Yes"
}

// replaceValueEntry swaps an existing /V entry (string or name form) for the
// new one, or appends it at the end of the dictionary.
func replaceValueEntry(fieldDict []byte, entry string) []byte {
	if loc := valueStringRe.FindIndex(fieldDict); loc != nil {
		return spliceBytes(fieldDict, loc[0], loc[1], entry)
	}
	if loc := valueNameRe.FindIndex(fieldDict); loc != nil {
		return spliceBytes(fieldDict, loc[0], loc[1], entry)
	}
	newDict := make([]byte, 0, len(fieldDict)+len(entry)+1)
	newDict = append(newDict, fieldDict[:len(fieldDict)-2]...)
	newDict = append(newDict, ' ')
	newDict = append(newDict, []byte(entry)...)
	newDict = append(newDict, '>', '>')
	return newDict
}

func spliceBytes(data []byte, from, to int, replacement string) []byte {
	out := make([]byte, 0, len(data)-(to-from)+len(replacement))
	out = append(out, data[:from]...)
	out = append(out, []byte(replacement)...)
	out = append(out, data[to:]...)
	return out
}

var (
	needAppearancesRe = regexp.MustCompile(`/NeedAppearances\s+(true|false)`)
	acroFormRefRe     = regexp.MustCompile(`/AcroForm\s+(\d+)\s+(\d+)\s+R`)
)

// ensureNeedAppearances forces /NeedAppearances true on the AcroForm
// dictionary so viewers regenerate field appearance streams. Without it a
// written value can render blank.
func ensureNeedAppearances(data []byte) []byte {
	if needAppearancesRe.Match(data) {
		return needAppearancesRe.ReplaceAll(data, []byte("/NeedAppearances true"))
	}

	idx := bytes.Index(data, []byte("/AcroForm"))
	if idx < 0 {
		return data
	}

	// Inline form dictionary: /AcroForm <<...>>
	rest := data[idx+len("/AcroForm"):]
	j := 0
	for j < len(rest) && isPDFSpace(rest[j]) {
		j++
	}
	if j+1 < len(rest) && rest[j] == '<' && rest[j+1] == '<' {
		at := idx + len("/AcroForm") + j + 2
		return spliceBytes(data, at, at, " /NeedAppearances true")
	}

	// Indirect form dictionary: /AcroForm N G R, patch the object body.
	m := acroFormRefRe.FindSubmatch(data[idx:])
	if m == nil {
		return data
	}
	objRe := regexp.MustCompile(`(?m)^` + string(m[1]) + `\s+` + string(m[2]) + `\s+obj\b`)
	loc := objRe.FindIndex(data)
	if loc == nil {
		return data
	}
	k := bytes.Index(data[loc[1]:], []byte("<<"))
	if k < 0 {
		return data
	}
	at := loc[1] + k + 2
	return spliceBytes(data, at, at, " /NeedAppearances true")
}

func isPDFSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// rebuildXref scans the body for object definitions and rebuilds the xref
// table with correct offsets, accounting for the byte-level edits above.
func rebuildXref(data []byte) []byte {
	objPattern := regexp.MustCompile(`(?m)^(\d+)\s+(\d+)\s+obj\b`)
	matches := objPattern.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return data
	}

	type objInfo struct {
		num, gen, offset int
	}
	var objects []objInfo
	maxObj := 0

	for _, m := range matches {
		num, _ := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, _ := strconv.Atoi(string(data[m[4]:m[5]]))
		objects = append(objects, objInfo{num: num, gen: gen, offset: m[0]})
		if num > maxObj {
			maxObj = num
		}
	}

	xrefIdx := bytes.LastIndex(data, []byte("\nxref\n"))
	if xrefIdx < 0 {
		xrefIdx = bytes.Index(data, []byte("xref\n"))
		if xrefIdx > 0 {
			xrefIdx--
		}
	}
	if xrefIdx < 0 {
		return data
	}

	trailerIdx := bytes.Index(data[xrefIdx:], []byte("trailer"))
	if trailerIdx < 0 {
		return data
	}
	trailerAbsIdx := xrefIdx + trailerIdx

	startxrefIdx := bytes.Index(data[trailerAbsIdx:], []byte("startxref"))
	if startxrefIdx < 0 {
		return data
	}
	trailerDict := bytes.TrimSpace(data[trailerAbsIdx+7 : trailerAbsIdx+startxrefIdx])

	body := data[:xrefIdx+1]

	var xref bytes.Buffer
	xref.WriteString("xref\n")
	xref.WriteString(fmt.Sprintf("0 %d\n", maxObj+1))
	xref.WriteString("0000000000 65535 f \n")

	offsets := make(map[int]objInfo)
	for _, obj := range objects {
		offsets[obj.num] = obj
	}
	for i := 1; i <= maxObj; i++ {
		if obj, ok := offsets[i]; ok {
			xref.WriteString(fmt.Sprintf("%010d %05d n \n", obj.offset, obj.gen))
		} else {
			xref.WriteString("0000000000 00000 f \n")
		}
	}

	var result bytes.Buffer
	result.Write(body)
	newXrefOffset := len(body)
	result.Write(xref.Bytes())
	result.WriteString("trailer\n")
	result.Write(trailerDict)
	result.WriteString(fmt.Sprintf("\nstartxref\n%d\n%%%%EOF\n", newXrefOffset))

	return result.Bytes()
}

// findDictStart searches backward from pos for the opening "<<" of the
// enclosing dictionary.
func findDictStart(data []byte, pos int) int {
	depth := 0
	for i := pos - 1; i > 0; i-- {
		if i+1 < len(data) && data[i] == '>' && data[i+1] == '>' {
			depth++
		}
		if data[i] == '<' && data[i-1] == '<' {
			if depth == 0 {
				return i - 1
			}
			depth--
		}
	}
	return -1
}

// findDictEnd searches forward from pos for the matching ">>".
func findDictEnd(data []byte, pos int) int {
	depth := 0
	for i := pos; i < len(data)-1; i++ {
		if data[i] == '<' && data[i+1] == '<' {
			depth++
			i++
			continue
		}
		if data[i] == '>' && data[i+1] == '>' {
			if depth <= 1 {
				return i
			}
			depth--
			i++
		}
	}
	return -1
}

func escapePDFString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '(', ')':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
