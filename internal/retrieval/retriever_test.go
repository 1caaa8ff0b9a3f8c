package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dodam/internal/domain"
	"dodam/internal/vectorstore/memory"
)

// unitEmbedder returns a fixed unit vector for every text so ranking is
// driven purely by the stored vectors.
type unitEmbedder struct {
	fail bool
}

func (u *unitEmbedder) Embed(context.Context, string) ([]float64, error) {
	if u.fail {
		return nil, assert.AnError
	}
	return []float64{1, 0}, nil
}

func (u *unitEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		v, err := u.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (u *unitEmbedder) Dimension() int { return 2 }
func (u *unitEmbedder) Model() string  { return "unit" }

func seededStore(t *testing.T) *memory.Storage {
	t.Helper()
	s := memory.NewStorage()
	require.NoError(t, s.Init(context.Background(), 2))
	chunks := []domain.Chunk{
		{ID: "v0", Category: "보이스피싱", Section: "대처방안", Source: "보이스피싱_대처방안.txt", Text: "즉시 112에 신고하세요"},
		{ID: "v1", Category: "보이스피싱", Section: "대처방안", Source: "보이스피싱_대처방안.txt", Text: "계좌 지급정지를 요청하세요"},
		{ID: "s0", Category: "스미싱", Section: "대처방안", Source: "스미싱_대처방안.txt", Text: "악성 앱을 삭제하세요"},
	}
	vectors := [][]float64{{1, 0}, {0.8, 0.6}, {0.99, 0.1}}
	require.NoError(t, s.Upsert(context.Background(), chunks, vectors))
	return s
}

func TestRetrieveFormatsHitsInRelevanceOrder(t *testing.T) {
	r := NewRetriever(&unitEmbedder{}, seededStore(t), 5)

	out, err := r.Retrieve(context.Background(), "사기를 당했어요", "보이스피싱", "")
	require.NoError(t, err)

	blocks := strings.Split(out, "\n\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "- 즉시 112에 신고하세요\n(출처: 보이스피싱_대처방안.txt)", blocks[0])
	assert.Contains(t, blocks[1], "계좌 지급정지")
}

func TestRetrieveNeverLeaksOtherCategories(t *testing.T) {
	r := NewRetriever(&unitEmbedder{}, seededStore(t), 5)

	out, err := r.Retrieve(context.Background(), "문자 사기", "보이스피싱", "")
	require.NoError(t, err)
	assert.NotContains(t, out, "악성 앱", "스미싱 chunk must not appear under 보이스피싱")
}

func TestRetrieveEmptyCategoryReturnsSentinel(t *testing.T) {
	r := NewRetriever(&unitEmbedder{}, seededStore(t), 5)

	out, err := r.Retrieve(context.Background(), "도와주세요", "없는카테고리", "")
	require.NoError(t, err)
	assert.Equal(t, NoDocumentsFound, out)
}

func TestRetrieveRespectsTopK(t *testing.T) {
	r := NewRetriever(&unitEmbedder{}, seededStore(t), 1)

	out, err := r.Retrieve(context.Background(), "사기", "보이스피싱", "")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "(출처:"))
}

func TestRetrieveEmbedFailurePropagates(t *testing.T) {
	r := NewRetriever(&unitEmbedder{fail: true}, seededStore(t), 5)

	_, err := r.Retrieve(context.Background(), "질문", "보이스피싱", "")
	assert.Error(t, err)
}
