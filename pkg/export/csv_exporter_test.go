package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVRenderKeepsColumnOrder(t *testing.T) {
	raw, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"ФИО", "10.03.2026"},
		Rows: []map[string]string{
			{"ФИО": "Иванов Иван", "10.03.2026": "✔"},
			{"ФИО": "Петров Пётр"},
		},
	})
	require.NoError(t, err)

	out := string(raw)
	require.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "BOM keeps Cyrillic readable in Excel")
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "ФИО,10.03.2026", lines[0])
	require.Equal(t, "Иванов Иван,✔", lines[1])
	require.Equal(t, "Петров Пётр,", lines[2])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
