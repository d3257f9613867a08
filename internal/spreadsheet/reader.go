package spreadsheet

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/textset/internal/domain"
	"github.com/kailas-cloud/textset/internal/domain/ingest"
)

// Mandatory column headers, matched case-sensitively.
const (
	ColCreatorID            = "creator_id"
	ColCreatorName          = "creator_name"
	ColTextContent          = "text_content"
	ColPostDate             = "post_date"
	ColExternalItemID       = "external_item_id"
	ColParentExternalItemID = "parent_external_item_id"
)

// MandatoryColumns lists the required headers in canonical order.
var MandatoryColumns = []string{
	ColCreatorID,
	ColCreatorName,
	ColTextContent,
	ColPostDate,
	ColExternalItemID,
	ColParentExternalItemID,
}

// Read decodes the first worksheet and maps it to typed rows in file order.
// A sheet without every mandatory column fails with *domain.SchemaError before any row is mapped.
func Read(format Format, data []byte) ([]ingest.Row, error) {
	g, err := decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	return rowsFromGrid(g)
}

func rowsFromGrid(g grid) ([]ingest.Row, error) {
	headerIdx := -1
	for i, line := range g {
		if !blank(line) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("spreadsheet has no header row: %w", domain.ErrInvalidSchema)
	}

	cols := make(map[string]int, len(g[headerIdx]))
	for i, name := range g[headerIdx] {
		name = strings.TrimRightFunc(name, unicode.IsSpace)
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range MandatoryColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}

	get := func(line []string, name string) string {
		idx := cols[name]
		if idx < len(line) {
			return line[idx]
		}
		return ""
	}

	rows := make([]ingest.Row, 0, len(g)-headerIdx-1)
	for i := headerIdx + 1; i < len(g); i++ {
		line := g[i]
		if blank(line) {
			continue
		}
		rows = append(rows, ingest.Row{
			Line:                 i + 1,
			CreatorID:            get(line, ColCreatorID),
			CreatorName:          get(line, ColCreatorName),
			TextContent:          get(line, ColTextContent),
			PostDate:             get(line, ColPostDate),
			ExternalItemID:       get(line, ColExternalItemID),
			ParentExternalItemID: get(line, ColParentExternalItemID),
		})
	}
	return rows, nil
}

func blank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Decoder exposes Read as a value for callers that take the reader as a dependency.
type Decoder struct{}

// Read decodes data with the package-level Read.
func (Decoder) Read(format Format, data []byte) ([]ingest.Row, error) {
	return Read(format, data)
}
