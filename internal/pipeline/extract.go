/**
 * Field extractor.
 *
 * Parses recognized ID-card text into structured identity fields using
 * ordered heuristic tiers. Each tier is a pure matcher; the extractor runs
 * them in priority order and takes the first success. Extraction never
 * fails: a field with no match degrades to its empty default and the record
 * is still produced.
 */

package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goldengeneration/signup-service/internal/logging"
)

// How many lines from either end of the document are searched by the
// positional ID tiers. The ID number is printed near the top or bottom of
// the card.
const idSearchWindow = 6

var (
	nonDigitRE = regexp.MustCompile(`[^\d]`)
	// A full ID: exactly 9 decimal digits.
	fullIDRE = regexp.MustCompile(`^\d{9}$`)
	// Printed layout where the ID is flanked by the check digits 2...1.
	anchoredIDRE = regexp.MustCompile(`2\d{7}1`)
	// Any 9-digit run inside a larger text.
	digitRunRE = regexp.MustCompile(`\d{9}`)
	// Anything outside the Hebrew block and whitespace is OCR noise in a name.
	nonHebrewRE = regexp.MustCompile(`[^\x{0590}-\x{05FF}\s]`)
	digitsRE    = regexp.MustCompile(`^\d+$`)
)

// datePatterns are tried in priority order per line: DD.MM.YYYY,
// DD/MM/YYYY, DD-MM-YYYY.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`),
	regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`),
	regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`),
}

// Label variants printed above the name fields on the card.
var (
	firstNameMarkers = []string{"השם הפרטי", "שם פרטי"}
	lastNameMarkers  = []string{"שם משפחה", "שם המשפחה"}
)

// Extractor turns a RecognitionResult into an ExtractedIdentity.
type Extractor struct {
	log *logging.Logger
	now func() time.Time
}

// NewExtractor creates a field extractor.
func NewExtractor(log *logging.Logger) *Extractor {
	return &Extractor{log: log, now: time.Now}
}

// Extract parses recognized lines into identity fields. It is pure with
// respect to its input: the same RecognitionResult always yields the same
// record.
func (e *Extractor) Extract(res *RecognitionResult) ExtractedIdentity {
	identity := ExtractedIdentity{Gender: GenderMale}

	lines := make([]string, 0, len(res.Lines))
	for _, l := range res.Lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}

	identity.IDNumber = e.extractIDNumber(lines)
	identity.FirstName, identity.LastName = e.extractNames(lines)
	identity.DateOfBirth = e.extractBirthDate(lines)

	return identity
}

// idMatcher is one heuristic tier. Tiers run in slice order; the first
// non-empty result wins.
type idMatcher struct {
	name  string
	match func(lines []string) string
}

var idMatchers = []idMatcher{
	{"trailing lines, stripped digits", func(lines []string) string {
		return matchStrippedRun(lastN(lines, idSearchWindow))
	}},
	{"trailing lines, anchored 2...1", func(lines []string) string {
		return matchAnchored(lastN(lines, idSearchWindow))
	}},
	{"leading lines, stripped digits", func(lines []string) string {
		return matchStrippedRun(firstN(lines, idSearchWindow))
	}},
	{"leading lines, anchored 2...1", func(lines []string) string {
		return matchAnchored(firstN(lines, idSearchWindow))
	}},
	{"whole text, digit run", matchJoinedRun},
	{"whole text, split tokens", matchSplitTokens},
}

// extractIDNumber runs the tiers in order. A miss is an expected degraded
// case on poor scans, logged for diagnosis but never raised as an error.
func (e *Extractor) extractIDNumber(lines []string) string {
	for _, m := range idMatchers {
		if id := m.match(lines); id != "" {
			e.log.Debug("id number matched", "tier", m.name)
			return id
		}
	}
	e.log.Warn("no valid id number found in recognized text")
	return ""
}

// matchStrippedRun accepts a line whose digits, with everything else
// stripped, form exactly a 9-digit ID.
func matchStrippedRun(lines []string) string {
	for _, line := range lines {
		stripped := nonDigitRE.ReplaceAllString(line, "")
		if fullIDRE.MatchString(stripped) {
			return stripped
		}
	}
	return ""
}

// matchAnchored looks for the contiguous printed layout: a literal 2,
// seven digits, a literal 1.
func matchAnchored(lines []string) string {
	for _, line := range lines {
		if m := anchoredIDRE.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// matchJoinedRun joins all lines and takes the first 9-digit run anywhere.
func matchJoinedRun(lines []string) string {
	return digitRunRE.FindString(strings.Join(lines, " "))
}

// matchSplitTokens detects the ID split across three whitespace-delimited
// tokens: a standalone "2", a 7-digit token, a standalone "1".
func matchSplitTokens(lines []string) string {
	tokens := strings.Fields(strings.Join(lines, " "))
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i] == "2" && len(tokens[i+1]) == 7 && digitsRE.MatchString(tokens[i+1]) && tokens[i+2] == "1" {
			return tokens[i] + tokens[i+1] + tokens[i+2]
		}
	}
	return ""
}

// extractNames scans for the printed field labels and takes the line after
// each (or the one after that when the immediate line is noise). When a
// name is still unset, it falls back to the first clean Hebrew lines in the
// top half of the document.
func (e *Extractor) extractNames(lines []string) (first, last string) {
	for i, line := range lines {
		if containsAny(line, firstNameMarkers) {
			if name := nameAfter(lines, i); name != "" {
				first = name
			}
		}
		if containsAny(line, lastNameMarkers) {
			if name := nameAfter(lines, i); name != "" {
				last = name
			}
		}
	}

	if first == "" || last == "" {
		top := lines[:(len(lines)+1)/2]
		candidates := make([]string, 0, len(top))
		for _, line := range top {
			if name := cleanHebrew(line); name != "" {
				candidates = append(candidates, name)
			}
		}
		if first == "" && len(candidates) > 0 {
			first = candidates[0]
		}
		if last == "" && len(candidates) > 1 {
			last = candidates[1]
		}
	}

	if first == "" {
		e.log.Debug("first name not detected")
	}
	if last == "" {
		e.log.Debug("last name not detected")
	}
	return first, last
}

// nameAfter returns the cleaned name from the line following the marker at
// idx, trying one line further when the immediate line fails the script
// check.
func nameAfter(lines []string, idx int) string {
	if idx+1 < len(lines) {
		if name := cleanHebrew(lines[idx+1]); name != "" {
			return name
		}
	}
	if idx+2 < len(lines) {
		return cleanHebrew(lines[idx+2])
	}
	return ""
}

// cleanHebrew strips everything outside the Hebrew block and whitespace.
// The result must keep at least 2 characters to count as a name.
func cleanHebrew(line string) string {
	cleaned := strings.TrimSpace(nonHebrewRE.ReplaceAllString(line, ""))
	if len([]rune(cleaned)) < 2 {
		return ""
	}
	return cleaned
}

// extractBirthDate returns the first structurally valid date in any line,
// normalized to YYYY-MM-DD. The card may also carry an issue date in the
// same format; the first valid match wins with no disambiguation.
func (e *Extractor) extractBirthDate(lines []string) string {
	currentYear := e.now().Year()
	for _, line := range lines {
		for _, pattern := range datePatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if day >= 1 && day <= 31 && month >= 1 && month <= 12 && year > 1900 && year <= currentYear {
				return fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
			}
		}
	}
	e.log.Debug("no valid date of birth found")
	return ""
}

func containsAny(line string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func lastN(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

func firstN(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[:n]
}
