package detect

import (
	"net/http"

	"github.com/spf13/afero"
)

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

func OverloadHTTPGet(overload func(string) (*http.Response, error)) func() {
	httpGetRef := httpGet
	httpGet = overload
	return func() { httpGet = httpGetRef }
}
