package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormaliser_Normalise(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>주차장 설치 기준 &amp; 예외</title><style>p { color: red; }</style></head>
<body>
<!-- navigation -->
<h1>제6조</h1>
<p>부설주차장은 <b>시설면적</b> 150제곱미터당&nbsp;1대</p>
<script>alert("x")</script>
<table>
<tr><th>구분</th><th>기준</th></tr>
<tr><td>다중주택</td><td>1대</td></tr>
</table>
</body>
</html>`

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "parking.html",
		Content:  []byte(page),
	})

	require.NoError(t, err)
	assert.Equal(t, "주차장 설치 기준 & 예외", result.Title)
	assert.Equal(t, "html", result.Format)
	assert.Equal(t, "제6조\n부설주차장은 시설면적 150제곱미터당 1대\n구분 | 기준\n다중주택 | 1대", result.Content)
}

func TestNormaliser_TitleFallback(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "zoning-rules.html",
		Content:  []byte("<p>text</p>"),
	})

	require.NoError(t, err)
	assert.Equal(t, "zoning rules", result.Title)
	assert.Equal(t, "text", result.Content)
}

func TestNormaliser_Nil(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "a\nb", Strip("a<br>b"))
	assert.Equal(t, "a\nb", Strip("a<hr/>b"))
	assert.Equal(t, "x < y", Strip("x &lt; y"))
	assert.Empty(t, Strip("<script>var a = 1;</script>"))
}
