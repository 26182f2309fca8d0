package fields_test

import (
	"testing"

	fieldscmd "github.com/rijnhardtkotze/icann-reports/cmd/fields"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestFieldsCommand_Metadata(t *testing.T) {
	assert.Equal(t, "fields", fieldscmd.Cmd.Use)
	assert.Contains(t, fieldscmd.Cmd.Short, "field catalog")
	assert.NotNil(t, fieldscmd.Cmd.Run)
}

func TestFieldsCommand_Run(t *testing.T) {
	cmd := &cobra.Command{}

	assert.NotPanics(t, func() {
		fieldscmd.Cmd.Run(cmd, []string{})
	})
}
