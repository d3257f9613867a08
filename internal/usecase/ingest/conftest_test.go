package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kailas-cloud/textset/internal/domain"
	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	"github.com/kailas-cloud/textset/internal/domain/item"
	"github.com/kailas-cloud/textset/internal/domain/textset"
	"github.com/kailas-cloud/textset/internal/segment"
	"github.com/kailas-cloud/textset/internal/spreadsheet"
)

type mockTextSets struct {
	owner uuid.UUID
	calls int
}

func (m *mockTextSets) FindOwned(_ context.Context, textSetID, ownerID uuid.UUID) (textset.TextSet, error) {
	m.calls++
	if ownerID != m.owner {
		return textset.TextSet{}, fmt.Errorf("text set %s: %w", textSetID, domain.ErrNotFound)
	}
	return textset.Reconstruct(textSetID, "news", "", ownerID), nil
}

type mockSheets struct {
	rows  []domingest.Row
	err   error
	calls int
}

func (m *mockSheets) Read(_ spreadsheet.Format, _ []byte) ([]domingest.Row, error) {
	m.calls++
	return m.rows, m.err
}

// mockEmbedder returns a 3-dim vector per call; failOn (1-based) injects err.
type mockEmbedder struct {
	calls  int
	failOn int
	err    error
	dims   int
	inputs []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.inputs = append(m.inputs, text)
	if m.failOn > 0 && m.calls == m.failOn {
		return domain.EmbeddingResult{}, m.err
	}
	dims := m.dims
	if dims == 0 {
		dims = 3
	}
	vec := make([]float32, dims)
	vec[0] = float32(m.calls)
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 2}, nil
}

type mockItems struct {
	written []item.Item
	err     error
	calls   int
}

func (m *mockItems) WriteAll(_ context.Context, items []item.Item) (int, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	m.written = append(m.written, items...)
	return len(items), nil
}

// wordMeasurer treats each whitespace-separated word as one token.
type wordMeasurer struct {
	ids   map[string]int
	words []string
}

func (m *wordMeasurer) Encode(text string) []int {
	if m.ids == nil {
		m.ids = make(map[string]int)
	}
	var out []int
	for _, f := range strings.Fields(text) {
		id, ok := m.ids[f]
		if !ok {
			id = len(m.words)
			m.ids[f] = id
			m.words = append(m.words, f)
		}
		out = append(out, id)
	}
	return out
}

func (m *wordMeasurer) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = m.words[t]
	}
	return strings.Join(parts, " ")
}

type fixture struct {
	svc      *Service
	textSets *mockTextSets
	sheets   *mockSheets
	embedder *mockEmbedder
	items    *mockItems
	req      domingest.Request
}

func newFixture(t *testing.T, rows []domingest.Row) *fixture {
	t.Helper()
	seg, err := segment.New(&wordMeasurer{}, segment.DefaultMaxTokens, segment.DefaultOverlapTokens)
	if err != nil {
		t.Fatalf("segment.New: %v", err)
	}
	owner := uuid.New()
	f := &fixture{
		textSets: &mockTextSets{owner: owner},
		sheets:   &mockSheets{rows: rows},
		embedder: &mockEmbedder{},
		items:    &mockItems{},
		req: domingest.Request{
			OwnerID:     owner,
			TextSetID:   uuid.New(),
			FileName:    "posts.xlsx",
			ContentType: spreadsheet.MIMETypeXLSX,
			Data:        []byte("workbook"),
		},
	}
	f.svc = New(f.textSets, f.sheets, seg, f.embedder, f.items)
	return f
}

func row(line int, text, date string) domingest.Row {
	return domingest.Row{
		Line:                 line,
		CreatorID:            fmt.Sprintf("c%d", line),
		CreatorName:          "Ada",
		TextContent:          text,
		PostDate:             date,
		ExternalItemID:       fmt.Sprintf("e%d", line),
		ParentExternalItemID: "",
	}
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}
