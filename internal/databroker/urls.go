package databroker

import (
	"fmt"
	"net/url"
	"strings"
)

// ProxyURL routes target through the configured proxy when ShouldProxy says so.
func (b *Broker) ProxyURL(target string) string {
	if b.proxy == "" || !b.ShouldProxy(target) {
		return target
	}
	return strings.ReplaceAll(b.proxy, "{url}", url.QueryEscape(target))
}

// ShouldProxy reports whether target is neither same-origin nor on a domain
// known to send CORS headers.
func (b *Broker) ShouldProxy(target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false
	}
	if b.cors[u.Hostname()] {
		return false
	}
	return u.Host != b.local
}

// ImageSrc rewrites an image URI through the configured rewrites and, when
// both dimensions are given, asks for a scaled rendition: IIIF style for
// /full/full/0/ paths, w and h query parameters otherwise.
func (b *Broker) ImageSrc(uri string, width, height int) string {
	for _, rw := range b.images {
		if strings.Contains(uri, rw.From) {
			uri = strings.Replace(uri, rw.From, rw.To, 1)
		}
	}
	if width <= 0 || height <= 0 {
		return uri
	}
	if strings.Contains(uri, "/full/full/0/") {
		return strings.Replace(uri, "/full/full/0/", fmt.Sprintf("/full/!%d,%d/0/", width, height), 1)
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sw=%d&h=%d", uri, sep, width, height)
}
