package signing

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalString(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		params url.Values
		want   string
	}{
		{
			name:   "no params",
			method: "GET",
			path:   "/apps/3/channels",
			want:   "GET\n/apps/3/channels\n",
		},
		{
			name:   "sorted keys",
			method: "POST",
			path:   "/apps/3/events",
			params: url.Values{
				"body_md5":       {"ec365a775a4cd0599faeb73354201b6f"},
				"auth_version":   {"1.0"},
				"auth_key":       {"278d425bdf160c739803"},
				"auth_timestamp": {"1353088179"},
			},
			want: "POST\n/apps/3/events\nauth_key=278d425bdf160c739803&auth_timestamp=1353088179&auth_version=1.0&body_md5=ec365a775a4cd0599faeb73354201b6f",
		},
		{
			name:   "byte order puts upper case first",
			method: "GET",
			path:   "/",
			params: url.Values{"b": {"2"}, "B": {"1"}, "a": {"3"}},
			want:   "GET\n/\nB=1&a=3&b=2",
		},
		{
			name:   "first value only",
			method: "GET",
			path:   "/",
			params: url.Values{"tag": {"one", "two"}},
			want:   "GET\n/\ntag=one",
		},
		{
			name:   "values are not escaped",
			method: "GET",
			path:   "/",
			params: url.Values{"filter": {"a b&c=d"}},
			want:   "GET\n/\nfilter=a b&c=d",
		},
		{
			name:   "method kept verbatim",
			method: "get",
			path:   "/x",
			params: url.Values{"k": {"v"}},
			want:   "get\n/x\nk=v",
		},
		{
			name:   "key without values",
			method: "GET",
			path:   "/",
			params: url.Values{"empty": {}},
			want:   "GET\n/\nempty=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalString(tt.method, tt.path, tt.params))
		})
	}
}

func TestCanonicalStringOrderIndependent(t *testing.T) {
	a := url.Values{}
	a.Add("zeta", "1")
	a.Add("alpha", "2")
	a.Add("mid", "3")

	b := url.Values{}
	b.Add("mid", "3")
	b.Add("zeta", "1")
	b.Add("alpha", "2")

	for range 20 {
		assert.Equal(t, CanonicalString("GET", "/p", a), CanonicalString("GET", "/p", b))
	}
}
