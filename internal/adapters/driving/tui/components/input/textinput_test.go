package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

func typeText(in *QueryInput, text string) {
	for _, r := range text {
		in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewQueryInput(t *testing.T) {
	in := NewQueryInput(styles.DefaultStyles())

	require.NotNil(t, in)
	assert.Equal(t, "", in.Value())
	assert.Equal(t, "", in.Folder())
	assert.True(t, in.Focused())
	assert.False(t, in.FolderFocused())
}

func TestNewQueryInput_NilStyles(t *testing.T) {
	in := NewQueryInput(nil)

	require.NotNil(t, in)
	assert.NotNil(t, in.styles)
}

func TestQueryInput_Init(t *testing.T) {
	assert.NotNil(t, NewQueryInput(nil).Init())
}

func TestQueryInput_TypingGoesToFocusedField(t *testing.T) {
	in := NewQueryInput(nil)

	typeText(in, "주차")
	in.NextField()
	typeText(in, "다중주택")

	assert.Equal(t, "주차", in.Value())
	assert.Equal(t, "다중주택", in.Folder())
	assert.True(t, in.FolderFocused())
}

func TestQueryInput_NextFieldToggles(t *testing.T) {
	in := NewQueryInput(nil)

	in.NextField()
	assert.True(t, in.FolderFocused())

	in.NextField()
	assert.False(t, in.FolderFocused())
	assert.True(t, in.Focused())
}

func TestQueryInput_ValuesAreTrimmed(t *testing.T) {
	in := NewQueryInput(nil)

	in.SetValue("  층수 제한  ")
	in.SetFolder(" 전주시 ")

	assert.Equal(t, "층수 제한", in.Value())
	assert.Equal(t, "전주시", in.Folder())
}

func TestQueryInput_BlurAndFocus(t *testing.T) {
	in := NewQueryInput(nil)

	in.Blur()
	assert.False(t, in.Focused())

	in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, "", in.Value(), "blurred input ignores keys")

	in.Focus()
	assert.True(t, in.Focused())
}

func TestQueryInput_Reset(t *testing.T) {
	in := NewQueryInput(nil)
	in.SetValue("old query")
	in.SetFolder("다중주택")
	in.NextField()

	in.Reset()

	assert.Equal(t, "", in.Value())
	assert.Equal(t, "다중주택", in.Folder())
	assert.False(t, in.FolderFocused())
	assert.True(t, in.Focused())
}

func TestQueryInput_View(t *testing.T) {
	in := NewQueryInput(nil)

	view := in.View()

	assert.Contains(t, view, "Query")
	assert.Contains(t, view, "Folder")
}

func TestQueryInput_SetWidth(t *testing.T) {
	in := NewQueryInput(nil)

	in.SetWidth(120)
	assert.Equal(t, 120, in.Width())
	assert.Equal(t, 120-folderWidth-30, in.query.Width)

	in.SetWidth(30)
	assert.Equal(t, 20, in.query.Width)
}
