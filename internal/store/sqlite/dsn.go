package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// connectionPragmas are applied by the driver to every new connection.
var connectionPragmas = []string{
	"busy_timeout(30000)",
	"foreign_keys(1)",
}

// parseDSN turns sqlite://path[?query] into a driver file name. Relative
// paths are anchored at the working directory.
func parseDSN(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}
	if rest == "" {
		return "", fmt.Errorf("sqlite DSN has no path")
	}

	path, query, _ := strings.Cut(rest, "?")
	if path == ":memory:" {
		return joinQuery(path, query), nil
	}

	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	return joinQuery(path, query), nil
}

func joinQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

func withConnectionPragmas(driverDSN string) string {
	params := make([]string, 0, len(connectionPragmas))
	for _, pragma := range connectionPragmas {
		params = append(params, "_pragma="+pragma)
	}
	sep := "?"
	if strings.Contains(driverDSN, "?") {
		sep = "&"
	}
	return driverDSN + sep + strings.Join(params, "&")
}

func isMemoryDSN(driverDSN string) bool {
	path, _, _ := strings.Cut(driverDSN, "?")
	return path == ":memory:" || strings.Contains(driverDSN, "mode=memory")
}
