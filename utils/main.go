package utils

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// FetchBytes reads a whole document from an http(s) URL or, for anything else, a local file.
func FetchBytes(location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.ReadFile(location)
	}

	res, err := http.Get(location)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", location, res.Status)
	}

	return io.ReadAll(res.Body)
}
