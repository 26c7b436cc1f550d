package bigdir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ApplyOptions_Uses_Defaults_When_No_Options(t *testing.T) {
	t.Parallel()

	cfg := applyOptions(nil)
	require.Equal(t, BackendAuto, cfg.Backend)
	require.Equal(t, DefaultBufferSize, cfg.BufferSize)
}

func Test_ApplyOptions_Clamps_Buffer_Size_When_Out_Of_Range(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int
		want int
	}{
		{in: -1, want: DefaultBufferSize},
		{in: 0, want: DefaultBufferSize},
		{in: 1, want: MinBufferSize},
		{in: MinBufferSize + 1, want: MinBufferSize + 1},
		{in: MaxBufferSize * 2, want: MaxBufferSize},
	}

	for _, tc := range cases {
		cfg := applyOptions([]Option{WithBufferSize(tc.in)})
		require.Equal(t, tc.want, cfg.BufferSize, "in=%d", tc.in)
	}
}

func Test_ApplyOptions_Applies_In_Order_When_Repeated(t *testing.T) {
	t.Parallel()

	cfg := applyOptions([]Option{
		WithBackend(BackendRaw),
		nil,
		WithBackend(BackendStream),
	})
	require.Equal(t, BackendStream, cfg.Backend)
}

func Test_IsDotEntry_Matches_Only_Exact_Dots(t *testing.T) {
	t.Parallel()

	require.True(t, isDotEntry([]byte(".")))
	require.True(t, isDotEntry([]byte("..")))
	require.False(t, isDotEntry([]byte("...")))
	require.False(t, isDotEntry([]byte(".a")))
	require.False(t, isDotEntry([]byte("")))
}
