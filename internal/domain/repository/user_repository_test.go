package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRoles(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "admin", want: []string{"admin"}},
		{name: "list", in: "admin,superuser", want: []string{"admin", "superuser"}},
		{name: "spaces trimmed", in: " admin , user ", want: []string{"admin", "user"}},
		{name: "empty segments dropped", in: "admin,,user,", want: []string{"admin", "user"}},
		{name: "only separators", in: ",,", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SplitRoles(tc.in))
		})
	}
}

func TestPageNormalize(t *testing.T) {
	require.Equal(t, Page{Limit: 50, Offset: 0}, Page{}.Normalize())
	require.Equal(t, Page{Limit: 50, Offset: 0}, Page{Limit: -1, Offset: -10}.Normalize())
	require.Equal(t, Page{Limit: 500, Offset: 100}, Page{Limit: 9999, Offset: 100}.Normalize())
	require.Equal(t, Page{Limit: 25, Offset: 50}, Page{Limit: 25, Offset: 50}.Normalize())
}
