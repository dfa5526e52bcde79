package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "empty means all", input: "", want: nil},
		{name: "single page", input: "3", want: []int{3}},
		{name: "range", input: "1-4", want: []int{1, 2, 3, 4}},
		{name: "list", input: "1,3,5", want: []int{1, 3, 5}},
		{name: "mixed with spaces", input: "1, 3-5, 8", want: []int{1, 3, 4, 5, 8}},
		{name: "reversed range", input: "5-2", wantErr: true},
		{name: "garbage token", input: "1,x", wantErr: true},
		{name: "double dash", input: "1-2-3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRange(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageFromFilename(t *testing.T) {
	num, err := pageFromFilename("page_7_image_2.png")
	require.NoError(t, err)
	assert.Equal(t, 7, num)

	_, err = pageFromFilename("thumbnail.png")
	assert.Error(t, err)

	_, err = pageFromFilename("page_x_image_1.png")
	assert.Error(t, err)
}

func TestExtractPagesRejectsBadRange(t *testing.T) {
	_, err := ExtractPages("whatever.pdf", "9-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page range")
}
