package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorsAddFormats(t *testing.T) {
	var errs ValidationErrors
	errs.Add("variants", "Variant %d does not belong to product %d", 7, 3)

	require.True(t, errs.HasErrors())
	require.Equal(t, "Variant 7 does not belong to product 3", errs[0].Message)
}

func TestValidationErrorsAddKeepsLiteralPercent(t *testing.T) {
	var errs ValidationErrors
	errs.Add("name", "%s", "value 100% wool is not allowed")

	require.Equal(t, "value 100% wool is not allowed", errs[0].Message)
}

func TestValidationErrorsMergeAndError(t *testing.T) {
	var errs ValidationErrors
	errs.Add("name", "is required")

	var more ValidationErrors
	more.Add("categoryId", "must be greater than 0")
	errs.Merge(more)

	require.Len(t, errs, 2)
	require.Contains(t, errs.Error(), "name")
	require.Contains(t, errs.Error(), "categoryId")
}
