package protocol

import (
	"slices"
	"strconv"
	"strings"
)

// ServerInfo is a snapshot of the capabilities a server declares in
// its OPTIONS response.
type ServerInfo struct {
	Version            string
	SupportedVersions  []string
	Extensions         []string
	MaxSize            int64
	ChecksumAlgorithms []string
}

// ParseServerInfo reads the capability headers of resp. An absent or
// unparsable Tus-Max-Size yields zero.
func ParseServerInfo(resp *Response) ServerInfo {
	info := ServerInfo{
		Version:            strings.TrimSpace(resp.Header.Get(HeaderTusResumable)),
		SupportedVersions:  splitList(resp.Header.Get(HeaderTusVersion)),
		Extensions:         splitList(resp.Header.Get(HeaderTusExtension)),
		ChecksumAlgorithms: splitList(resp.Header.Get(HeaderTusChecksumAlgorithm)),
	}

	if maxSize, err := strconv.ParseInt(strings.TrimSpace(resp.Header.Get(HeaderTusMaxSize)), 10, 64); err == nil && maxSize > 0 {
		info.MaxSize = maxSize
	}

	return info
}

// SupportsExtension reports whether the server declared ext.
func (s ServerInfo) SupportsExtension(ext string) bool {
	return slices.Contains(s.Extensions, ext)
}

// SupportsChecksum reports whether the server declared algorithm.
func (s ServerInfo) SupportsChecksum(algorithm string) bool {
	return slices.ContainsFunc(s.ChecksumAlgorithms, func(a string) bool {
		return strings.EqualFold(a, algorithm)
	})
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for element := range strings.SplitSeq(raw, ",") {
		if v := strings.TrimSpace(element); v != "" {
			out = append(out, v)
		}
	}

	return out
}
