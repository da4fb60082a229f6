// Package importer migrates a country list from XML into vault notes.
// It is a one-off data migration: it scaffolds a note per country, adds
// ISO code blocks to notes that predate the import, and regenerates the
// countries MOC (map of content) note.
package importer

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ivkram/geokb/internal/storage"
)

// MOCFilename is the regenerated map-of-content note.
const MOCFilename = "moc-countries.md"

// regionOrder fixes the MOC section order; regions not listed are appended
// alphabetically.
var regionOrder = []string{"Europe", "Asia", "America", "Africa", "Oceania", "Antarctica", "Other"}

// Country is one entry of the source XML.
type Country struct {
	Name            string `xml:"name"`
	FullName        string `xml:"fullname"`
	English         string `xml:"english"`
	Alpha2          string `xml:"alpha2"`
	Alpha3          string `xml:"alpha3"`
	ISO             string `xml:"iso"`
	Location        string `xml:"location"`
	LocationPrecise string `xml:"location-precise"`
}

type countryList struct {
	Countries []Country `xml:"country"`
}

// Summary reports what an import run did.
type Summary struct {
	Created  int
	Updated  int
	Skipped  int
	ByRegion map[string]int
}

type noteStatus int

const (
	noteCreated noteStatus = iota
	noteUpdated
	noteSkipped
)

// Importer writes country notes into the vault.
type Importer struct {
	store  storage.Provider
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

// New creates an importer. topic is the frontmatter topic value for
// created notes.
func New(store storage.Provider, topic string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, topic: topic, logger: logger, now: time.Now}
}

// ParseCountries decodes the XML country list. Entries without a name are
// dropped.
func ParseCountries(data []byte) ([]Country, error) {
	var list countryList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("importer: parse xml: %w", err)
	}
	out := list.Countries[:0]
	for _, c := range list.Countries {
		c = trimmed(c)
		if c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func trimmed(c Country) Country {
	c.Name = cleanText(c.Name)
	c.FullName = cleanText(c.FullName)
	c.English = cleanText(c.English)
	c.Alpha2 = cleanText(c.Alpha2)
	c.Alpha3 = cleanText(c.Alpha3)
	c.ISO = cleanText(c.ISO)
	c.Location = cleanText(c.Location)
	c.LocationPrecise = cleanText(c.LocationPrecise)
	return c
}

// cleanText trims whitespace and normalizes non-breaking spaces the source
// XML carries.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}

// Run imports every country from xmlPath and regenerates the MOC.
func (imp *Importer) Run(xmlPath string) (*Summary, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("importer: read %s: %w", xmlPath, err)
	}
	countries, err := ParseCountries(data)
	if err != nil {
		return nil, err
	}

	sum := &Summary{ByRegion: make(map[string]int)}
	byRegion := make(map[string][]mocEntry)
	stamp := imp.now().Format("20060102")

	for _, c := range countries {
		filename, status, err := imp.writeCountry(c, stamp)
		if err != nil {
			imp.logger.Warn("importer: note failed",
				slog.String("country", c.Name),
				slog.String("error", err.Error()))
			continue
		}
		switch status {
		case noteCreated:
			sum.Created++
		case noteUpdated:
			sum.Updated++
		case noteSkipped:
			sum.Skipped++
		}

		region := c.Location
		if region == "" {
			region = "Other"
		}
		sum.ByRegion[region]++
		byRegion[region] = append(byRegion[region], mocEntry{name: c.Name, filename: filename})
	}

	if err := imp.writeMOC(byRegion); err != nil {
		return nil, err
	}
	return sum, nil
}

// writeCountry creates the note for c, or injects the code block into an
// existing note with the same slug from an earlier run. Returns the note
// filename and what happened to it.
func (imp *Importer) writeCountry(c Country, stamp string) (string, noteStatus, error) {
	slug := Slugify(c.English)
	if slug == "" {
		slug = Slugify(c.Name)
	}
	filename := fmt.Sprintf("%s_%s.md", stamp, slug)

	if existing := imp.findExisting(slug); existing != "" {
		updated, err := imp.injectCodes(existing, c)
		status := noteSkipped
		if updated {
			status = noteUpdated
		}
		return path.Base(existing), status, err
	}

	if err := imp.store.Write(filename, []byte(imp.renderNote(c))); err != nil {
		return "", noteSkipped, err
	}
	return filename, noteCreated, nil
}

// findExisting looks for a note whose filename ends in the country slug,
// whatever its timestamp prefix.
func (imp *Importer) findExisting(slug string) string {
	metas, err := imp.store.List("")
	if err != nil {
		return ""
	}
	suffix := "_" + slug + ".md"
	for _, m := range metas {
		if strings.HasSuffix(path.Base(m.Path), suffix) {
			return m.Path
		}
	}
	return ""
}

// injectCodes adds the code block into the note's "Basic information"
// section unless codes are already present.
func (imp *Importer) injectCodes(notePath string, c Country) (bool, error) {
	data, err := imp.store.Read(notePath)
	if err != nil {
		return false, err
	}
	content := string(data)
	if strings.Contains(content, "Alpha-2 code") || strings.Contains(content, "English name") {
		return false, nil
	}
	codes := codesBlock(c)
	if codes == "" {
		return false, nil
	}

	const marker = "## Basic information"
	start := strings.Index(content, marker)
	if start < 0 {
		return false, nil
	}
	next := strings.Index(content[start+len(marker):], "\n## ")
	if next < 0 {
		next = len(content)
	} else {
		next += start + len(marker)
	}

	head := strings.TrimRight(content[:next], "\n")
	tail := strings.TrimLeft(content[next:], "\n")
	out := head + "\n\n" + codes + "\n"
	if tail != "" {
		out += "\n" + tail
	}
	if err := imp.store.Write(notePath, []byte(out)); err != nil {
		return false, err
	}
	return true, nil
}

// codesBlock renders the identification lines available for c.
func codesBlock(c Country) string {
	var lines []string
	if c.English != "" {
		lines = append(lines, "**English name:** "+c.English)
	}
	if c.Alpha2 != "" {
		lines = append(lines, "**Alpha-2 code:** "+c.Alpha2)
	}
	if c.Alpha3 != "" {
		lines = append(lines, "**Alpha-3 code:** "+c.Alpha3)
	}
	if c.ISO != "" {
		lines = append(lines, "**ISO code:** "+c.ISO)
	}
	return strings.Join(lines, "\n")
}

// renderNote builds the full note skeleton for a country.
func (imp *Importer) renderNote(c Country) string {
	category := "Geography / Countries"
	if c.Location != "" {
		category += " / " + c.Location
	}

	var b strings.Builder
	fmt.Fprintf(&b, "---\ntitle: %s\ntype: Evergreen\nstatus: TODO\ncategory: %s\ntopic: %s\n---\n\n", c.Name, category, imp.topic)
	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	b.WriteString("## Basic information\n\n")
	if c.FullName != "" && c.FullName != c.Name {
		fmt.Fprintf(&b, "**Full name:** %s\n", c.FullName)
	}
	if c.Location != "" {
		fmt.Fprintf(&b, "**Region:** %s\n", c.Location)
	}
	if c.LocationPrecise != "" {
		fmt.Fprintf(&b, "**Location:** %s\n", c.LocationPrecise)
	}
	if codes := codesBlock(c); codes != "" {
		b.WriteString("\n" + codes + "\n")
	}
	b.WriteString(`
## GeoGuessr clues

*To be filled in*

## Geographic features

*To be filled in*

## Cultural features

*To be filled in*

## Related notes

*Links are added as the notes grow*
`)
	return b.String()
}

type mocEntry struct {
	name     string
	filename string
}

// writeMOC regenerates the countries MOC note, regions in fixed order and
// countries sorted by name within each.
func (imp *Importer) writeMOC(byRegion map[string][]mocEntry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "---\ntitle: MOC - Countries\ntype: Evergreen\nstatus: IN PROGRESS\ncategory: Navigation / Countries\ntopic: %s\n---\n\n", imp.topic)
	b.WriteString("# MOC - Countries\n\nNavigation across all country notes.\n")

	known := make(map[string]struct{}, len(regionOrder))
	for _, r := range regionOrder {
		known[r] = struct{}{}
	}
	regions := append([]string{}, regionOrder...)
	var extra []string
	for r := range byRegion {
		if _, ok := known[r]; !ok {
			extra = append(extra, r)
		}
	}
	sort.Strings(extra)
	regions = append(regions, extra...)

	for _, region := range regions {
		entries := byRegion[region]
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

		fmt.Fprintf(&b, "\n## %s\n\n", region)
		for _, e := range entries {
			fmt.Fprintf(&b, "- [%s](./%s)\n", e.name, e.filename)
		}
	}

	return imp.store.Write(MOCFilename, []byte(b.String()))
}

// Slugify lowercases a name and reduces it to letters, digits, and hyphens.
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastHyphen := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		default:
			// Non-ASCII letters pass through so Cyrillic names still
			// slugify; punctuation is dropped.
			if r > 127 && isLetterOrDigit(r) {
				b.WriteRune(r)
				lastHyphen = false
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func isLetterOrDigit(r rune) bool {
	return ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127 && !strings.ContainsRune(" \t\n.,;:!?()[]{}'\"/", r)
}
