package serrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseError_IsMatchesByCode(t *testing.T) {
	a := NewError("IMPORT_STRUCTURAL", "structural error", "")
	b := NewError("IMPORT_STRUCTURAL", "another message", "Import.Errors.Structural")
	c := NewError("IMPORT_PERSISTENCE", "persistence error", "")

	wrapped := fmt.Errorf("department D1: %w", a)
	require.ErrorIs(t, wrapped, b)
	require.NotErrorIs(t, wrapped, c)
	require.Equal(t, "IMPORT_STRUCTURAL", Code(wrapped))
	require.Equal(t, "", Code(fmt.Errorf("plain")))
}
