package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name               string
		existing, incoming Label
		want               Label
	}{
		{"empty existing", Label{}, Label{Value: "ann", Source: "recall"}, Label{Value: "ann", Source: "recall"}},
		{"empty incoming", Label{Value: "ann", Source: "recall"}, Label{}, Label{Value: "ann", Source: "recall"}},
		{"both", Label{Value: "ann", Source: "recall"}, Label{Value: "vip", Source: "rule"}, Label{Value: "ann|vip", Source: "recall,rule"}},
		{"incoming without source", Label{Value: "a", Source: "recall"}, Label{Value: "b"}, Label{Value: "a|b", Source: "recall"}},
		{"existing without source", Label{Value: "a"}, Label{Value: "b", Source: "rule"}, Label{Value: "a|b", Source: "rule"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}
