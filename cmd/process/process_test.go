package process_test

import (
	"testing"

	processcmd "github.com/rijnhardtkotze/icann-reports/cmd/process"

	"github.com/stretchr/testify/assert"
)

func TestProcessCommand_Metadata(t *testing.T) {
	assert.Equal(t, "process", processcmd.Cmd.Use)
	assert.Contains(t, processcmd.Cmd.Short, "transaction reports")
	assert.NotNil(t, processcmd.Cmd.RunE)
}

func TestProcessCommand_Flags(t *testing.T) {
	tests := []struct {
		name     string
		defValue string
	}{
		{"tld", "com"},
		{"start-date", "2024-01"},
		{"end-date", "2024-11"},
		{"sources", ""},
		{"max-workers", "0"},
		{"validate", "false"},
		{"generate-reports", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := processcmd.Cmd.Flags().Lookup(tt.name)
			assert.NotNil(t, flag)
			assert.Equal(t, tt.defValue, flag.DefValue)
			assert.NotEmpty(t, flag.Usage)
		})
	}
}
