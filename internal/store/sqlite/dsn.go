package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// driverPath turns a sqlite:// DSN into the name handed to the driver.
// Relative paths are anchored at the working directory and a query string
// is passed through as driver options.
func driverPath(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok {
		return "", fmt.Errorf("invalid sqlite DSN %q, expected sqlite://", dsn)
	}
	if rest == ":memory:" {
		return rest, nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	path, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("sqlite DSN %q has no path", dsn)
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		path += "?" + query
	}
	return path, nil
}
