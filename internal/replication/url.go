package replication

import "net/url"

// buildKVURL constructs "<peerBaseURL>/kv?key=<key>" with key properly
// escaped, rather than concatenating it into the query string raw.
func buildKVURL(peerBaseURL, key string) (string, error) {
	u, err := url.Parse(peerBaseURL)
	if err != nil {
		return "", err
	}
	u.Path = joinPath(u.Path, "kv")
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func joinPath(base, elem string) string {
	if base == "" {
		return "/" + elem
	}
	if base[len(base)-1] == '/' {
		return base + elem
	}
	return base + "/" + elem
}
